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
	"encoding/json"
	"slices"
	"strings"

	"github.com/poiesic/rednote/core"
)

// FallbackContentRunes bounds the note body produced by the heuristic fallback.
const FallbackContentRunes = 500

// DefaultNoteTitle replaces the title when a reply yields no usable first line.
const DefaultNoteTitle = "小红书笔记"

// FallbackDefaults carries the substitutes a provider wants applied when a
// model reply cannot be parsed into a structured note. A zero Title falls
// back to DefaultNoteTitle.
type FallbackDefaults struct {
	Title string
	Tags  []string
}

// Per-provider fallback sets. Google and DashScope share the generic
// lifestyle tags; ModelScope carries its own.
var (
	GoogleFallback     = FallbackDefaults{Title: DefaultNoteTitle, Tags: []string{"分享", "日常", "生活"}}
	DashScopeFallback  = FallbackDefaults{Title: DefaultNoteTitle, Tags: []string{"分享", "日常", "生活"}}
	ModelScopeFallback = FallbackDefaults{Title: DefaultNoteTitle, Tags: []string{"生活分享", "日常"}}
)

// NormalizeReply extracts a structured note from free-form model output.
//
// It locates the widest {...} span in the reply and parses it, accepting the
// result only when all of title, content and tags are present; the title is
// truncated to the rune limit. When no span yields a complete note, the
// heuristic fallback takes over: the first line becomes the title, the
// remaining lines the body, and the provider's default tag set is
// substituted. NormalizeReply never fails; it is the terminal
// error-absorption point for text generation.
func NormalizeReply(raw string, defaults FallbackDefaults) *core.Note {
	if note, ok := parseNoteJSON(raw); ok {
		return note
	}
	return fallbackNote(raw, defaults)
}

// parseNoteJSON attempts the structured path.
func parseNoteJSON(raw string) (*core.Note, bool) {
	span, ok := jsonSpan(stripFences(raw))
	if !ok {
		return nil, false
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		// Second chance: repair unquoted keys, a common LLM mistake
		span = repairJSON(span)
		if err := json.Unmarshal([]byte(span), &fields); err != nil {
			return nil, false
		}
	}

	// All three keys must be present; a partial object is worth less than
	// the fallback heuristic.
	for _, key := range []string{"title", "content", "tags"} {
		if _, present := fields[key]; !present {
			return nil, false
		}
	}

	var note core.Note
	if err := json.Unmarshal([]byte(span), &note); err != nil {
		return nil, false
	}
	note.Title = core.TruncateRunes(note.Title, core.TitleRuneLimit)
	return &note, true
}

// fallbackNote builds a note heuristically when no structured object could be
// recovered. A single-line reply doubles as both title and body.
func fallbackNote(raw string, defaults FallbackDefaults) *core.Note {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	title := core.TruncateRunes(strings.TrimSpace(lines[0]), core.TitleRuneLimit)
	if title == "" {
		title = defaults.Title
	}
	if title == "" {
		title = DefaultNoteTitle
	}

	content := raw
	if len(lines) > 1 {
		content = strings.Join(lines[1:], "\n")
	}

	return &core.Note{
		Title:   title,
		Content: core.TruncateRunes(content, FallbackContentRunes),
		Tags:    slices.Clone(defaults.Tags),
	}
}

// jsonSpan returns the greedy object span from the first '{' to the last '}'.
func jsonSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// stripFences removes a markdown code fence wrapper if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
