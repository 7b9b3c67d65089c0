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


// Package modelscope provides the AI service implementation backed by the
// ModelScope API-Inference platform.
//
// Text generation speaks the OpenAI-compatible chat API through the
// langchaingo library. Image generation uses the hosted model endpoint,
// which answers in one of two shapes: inline base64 payloads or a list of
// remote URLs. The adapter detects which shape came back and dispatches
// accordingly.
//
// This is the only provider whose availability check performs a live probe:
// beyond the credential, IsAvailable requires the models endpoint to answer.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider("modelscope"),
//	    ai.WithModelScopeAPIKey(os.Getenv("MODELSCOPE_API_KEY")),
//	)
//
//	svc, err := modelscope.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
package modelscope
