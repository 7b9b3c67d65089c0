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


// Package google provides the AI service implementation backed by Google
// Gemini (text) and Imagen (images).
//
// This package implements the ai.Service interface against the Generative
// Language REST API. It is the synchronous-chat variant: one blocking call
// per operation, failures logged and surfaced, no retry.
//
// Image prompts are optimized by a second Gemini call that turns the note
// body into an English scene description; when that call fails a plain
// template prompt is used instead.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithGeminiAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ai.WithImagenAPIKey(os.Getenv("IMAGEN_API_KEY")),
//	)
//
//	svc, err := google.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	note, err := svc.GenerateTextContent(ctx, "healthy breakfast ideas")
//	paths, err := svc.GenerateImages(ctx, note.Content, dir, 1, "")
package google
