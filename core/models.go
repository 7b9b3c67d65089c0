package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TitleRuneLimit is the maximum note title length imposed by the publish target.
// Titles are counted and truncated in runes, not bytes, since most notes are CJK.
const TitleRuneLimit = 20

// Note is the generated content for a single social-media note.
// Immutable once produced; the caller owns it for archival and publishing.
type Note struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// TruncateRunes shortens s to at most n runes.
// Byte-based slicing would split multibyte characters, so all domain
// length limits go through this helper.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RunRecord captures one completed workflow run for the local archive.
type RunRecord struct {
	Id         ID        `json:"id"`
	Topic      string    `json:"topic"`
	Note       Note      `json:"note"`
	Images     []string  `json:"images,omitempty"` // absolute paths of saved images
	Dir        string    `json:"dir"`              // run folder holding content.json and images
	Provider   string    `json:"provider"`         // AI service that produced the note
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`  // when the workflow run started
	InsertedAt time.Time `json:"inserted_at"` // when the record was inserted into the archive
}
