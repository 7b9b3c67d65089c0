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

import "errors"

var (
	// ErrNoServiceAvailable indicates that every provider in the fallback
	// chain reported unavailable. This is a configuration error: the caller
	// cannot proceed without fixing credentials.
	ErrNoServiceAvailable = errors.New("no AI service available")

	// ErrEmptyReply indicates the backend answered without any usable content.
	ErrEmptyReply = errors.New("empty model reply")

	// ErrNotConfigured indicates an operation was invoked on a service whose
	// required credentials are absent. IsAvailable reports this condition
	// without an error; the generation operations surface it as one.
	ErrNotConfigured = errors.New("service is not configured")
)

// Snippet returns a log-safe prefix of a response body. Diagnostic logs carry
// enough of a failing reply to identify the fault without flooding output.
func Snippet(data []byte) string {
	const max = 200
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
