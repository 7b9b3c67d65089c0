package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{
			name: "shorter than limit is unchanged",
			in:   "hello",
			n:    10,
			want: "hello",
		},
		{
			name: "exactly at limit is unchanged",
			in:   "hello",
			n:    5,
			want: "hello",
		},
		{
			name: "ascii over limit",
			in:   "5 Breakfasts You'll Love!!",
			n:    20,
			want: "5 Breakfasts You'll ",
		},
		{
			name: "CJK counted per rune not per byte",
			in:   "周末宅家也能瘦！懒人减脂秘籍分享给大家参考一下",
			n:    20,
			want: "周末宅家也能瘦！懒人减脂秘籍分享给大家参",
		},
		{
			name: "zero limit",
			in:   "anything",
			n:    0,
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			n:    20,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.n); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
