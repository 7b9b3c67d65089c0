// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/rednote/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReplyStructured(t *testing.T) {
	t.Run("clean JSON object", func(t *testing.T) {
		raw := `{"title": "早餐灵感", "content": "五种十分钟就能搞定的早餐。", "tags": ["早餐", "美食"]}`
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "早餐灵感", note.Title)
		assert.Equal(t, "五种十分钟就能搞定的早餐。", note.Content)
		assert.Equal(t, []string{"早餐", "美食"}, note.Tags)
	})

	t.Run("overlong title truncated to limit", func(t *testing.T) {
		raw := `{"title":"5 Breakfasts You'll Love!!","content":"Start your day right.","tags":["breakfast","health"]}`
		note := NormalizeReply(raw, GoogleFallback)

		require.NotNil(t, note)
		assert.Equal(t, "5 Breakfasts You'll ", note.Title)
		assert.Equal(t, core.TitleRuneLimit, utf8.RuneCountInString(note.Title))
		assert.Equal(t, "Start your day right.", note.Content)
	})

	t.Run("CJK title truncated by runes not bytes", func(t *testing.T) {
		longTitle := strings.Repeat("字", core.TitleRuneLimit+5)
		raw := `{"title": "` + longTitle + `", "content": "正文", "tags": ["日常"]}`
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, core.TitleRuneLimit, utf8.RuneCountInString(note.Title))
		assert.Equal(t, strings.Repeat("字", core.TitleRuneLimit), note.Title)
	})

	t.Run("JSON embedded in prose", func(t *testing.T) {
		raw := "Here is your note:\n{\"title\": \"周末计划\", \"content\": \"去公园野餐。\", \"tags\": [\"周末\"]}\nEnjoy!"
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "周末计划", note.Title)
		assert.Equal(t, "去公园野餐。", note.Content)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		raw := "```json\n{\"title\": \"旅行清单\", \"content\": \"收拾行李的小技巧。\", \"tags\": [\"旅行\"]}\n```"
		note := NormalizeReply(raw, ModelScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "旅行清单", note.Title)
	})

	t.Run("unquoted key repaired", func(t *testing.T) {
		raw := `{"title": "修复测试", content": "引号丢了也能读。", "tags": ["测试"]}`
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "修复测试", note.Title)
		assert.Equal(t, "引号丢了也能读。", note.Content)
		assert.Equal(t, []string{"测试"}, note.Tags)
	})

	t.Run("content not truncated on structured path", func(t *testing.T) {
		body := strings.Repeat("长", FallbackContentRunes+100)
		raw := `{"title": "长文", "content": "` + body + `", "tags": ["长文"]}`
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, body, note.Content)
	})
}

func TestNormalizeReplyFallback(t *testing.T) {
	t.Run("missing tags key falls back", func(t *testing.T) {
		raw := `{"title": "缺字段", "content": "没有标签。"}`
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, DashScopeFallback.Tags, note.Tags)
	})

	t.Run("unparseable reply uses first line as title", func(t *testing.T) {
		raw := "周末宅家也能瘦\n第一步：收起零食。\n第二步：动起来。"
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "周末宅家也能瘦", note.Title)
		assert.Equal(t, "第一步：收起零食。\n第二步：动起来。", note.Content)
		assert.Equal(t, []string{"分享", "日常", "生活"}, note.Tags)
	})

	t.Run("single line doubles as title and body", func(t *testing.T) {
		raw := "一句话的回复"
		note := NormalizeReply(raw, ModelScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "一句话的回复", note.Title)
		assert.Equal(t, "一句话的回复", note.Content)
		assert.Equal(t, []string{"生活分享", "日常"}, note.Tags)
	})

	t.Run("long first line truncated", func(t *testing.T) {
		first := strings.Repeat("标", core.TitleRuneLimit+10)
		note := NormalizeReply(first+"\n正文", DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, core.TitleRuneLimit, utf8.RuneCountInString(note.Title))
	})

	t.Run("long body truncated to budget", func(t *testing.T) {
		raw := "标题\n" + strings.Repeat("正", FallbackContentRunes+200)
		note := NormalizeReply(raw, DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, FallbackContentRunes, utf8.RuneCountInString(note.Content))
	})

	t.Run("blank reply yields default title", func(t *testing.T) {
		note := NormalizeReply("   \n  ", DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, DefaultNoteTitle, note.Title)
		assert.NotEmpty(t, note.Tags)
	})

	t.Run("tags of wrong type fall back", func(t *testing.T) {
		raw := `{"title": "坏标签", "content": "标签不是数组。", "tags": "生活"}`
		note := NormalizeReply(raw, ModelScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, ModelScopeFallback.Tags, note.Tags)
	})

	t.Run("braces in wrong order fall back", func(t *testing.T) {
		note := NormalizeReply("} no object here {", DashScopeFallback)

		require.NotNil(t, note)
		assert.Equal(t, "} no object here {", note.Title)
	})

	t.Run("never returns nil", func(t *testing.T) {
		for _, raw := range []string{"", "{", "}", "{}", "null", "```json```", "{\"title\":}"} {
			assert.NotNil(t, NormalizeReply(raw, DashScopeFallback), "raw=%q", raw)
		}
	})
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "missing opening quote after comma",
			in:   `{"a": 1, type": 2}`,
			want: `{"a": 1, "type": 2}`,
		},
		{
			name: "missing opening quote after brace",
			in:   `{title": "x"}`,
			want: `{"title": "x"}`,
		},
		{
			name: "valid JSON untouched",
			in:   `{"title": "x", "tags": ["a", "b"]}`,
			want: `{"title": "x", "tags": ["a", "b"]}`,
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
