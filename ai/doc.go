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


// Package ai provides abstractions for the AI backends used in Rednote.
//
// This package defines the Service interface for note generation (text and
// images), the shared configuration struct, the response normalizer that turns
// free-form model output into a structured note, and the image persistence
// helper. It follows the dependency inversion principle: the workflow and CLI
// depend on these abstractions rather than on concrete vendor clients.
//
// # Design Principles
//
// The package is designed around one capability interface:
//
//   - Service: generates note text, generates and persists images, and
//     reports its own availability
//
// Each concrete adapter owns its credentials and HTTP client; there is no
// shared base state between implementations.
//
// # Implementation Packages
//
// The ai package includes four implementation sub-packages:
//
//   - ai/google: Gemini text generation plus Imagen image generation
//   - ai/dashscope: Qwen text generation plus Wanxiang task-based images
//   - ai/modelscope: OpenAI-compatible hosted inference (text and images)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (google.NewService, dashscope.NewService,
// modelscope.NewService) return the INTERFACE type to enforce abstraction and
// prevent accidental coupling to vendor-specific implementation details:
//
//	svc, err := google.NewService(config)  // returns ai.Service
//
// The test constructor (mock.NewMockService) returns the CONCRETE type to
// enable behavior injection and assertions via the mock's public surface
// (CallCount, the Func fields, Reset):
//
//	m := mock.NewMockService()             // returns *mock.MockService
//	m.GenerateTextContentFunc = ...        // needs concrete type
//	count := m.TextCalls()                 // test assertion
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithGeminiAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ai.WithImagenAPIKey(os.Getenv("IMAGEN_API_KEY")),
//	)
//	svc, err := google.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	note, err := svc.GenerateTextContent(ctx, "healthy breakfast ideas")
//	paths, err := svc.GenerateImages(ctx, note.Content, runDir, 1, "")
//
// # Error Absorption
//
// Adapters absorb their own faults: malformed model output is repaired or
// replaced by the normalizer fallback, missing credentials make IsAvailable
// return false rather than panic, and a failed image in a batch is skipped
// without aborting its siblings. The only error a caller must treat as
// unrecoverable is ErrNoServiceAvailable from the fallback chain.
package ai
