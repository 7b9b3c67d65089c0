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


package core

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ValidateNote validates a Note according to domain rules.
//
// Validation rules:
//   - Title must not be empty and must not exceed TitleRuneLimit runes
//   - Content must not be empty
//
// NOT validated (best-effort policy):
//   - Tags (3-5 are expected, any count is accepted)
func ValidateNote(note *Note) error {
	if note == nil {
		return fmt.Errorf("%w: note is nil", ErrInvalidNote)
	}

	if note.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyTitle)
	}

	if utf8.RuneCountInString(note.Title) > TitleRuneLimit {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrTitleTooLong)
	}

	if note.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyContent)
	}

	return nil
}

// ValidateRunRecord validates a RunRecord according to domain rules.
//
// Validation rules:
//   - Topic must not be empty
//   - The embedded Note must be valid
//   - CreatedAt must not be in the future
//
// NOT validated (populated by the archive):
//   - ID (0 is valid until a sequence assigns one)
//   - InsertedAt (stamped on insert)
func ValidateRunRecord(record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRunRecord)
	}

	if record.Topic == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRunRecord, ErrEmptyTopic)
	}

	if err := ValidateNote(&record.Note); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunRecord, err)
	}

	if !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidRunRecord, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
