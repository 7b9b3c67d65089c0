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


// Package dashscope provides the AI service implementation backed by Alibaba
// Cloud Model Studio: Qianwen models for text and Wanxiang for images.
//
// This package implements the ai.Service interface against the DashScope
// REST API. It is the async-task-polling variant: image synthesis submits a
// task, then polls the task endpoint at a fixed interval until the backend
// reports a terminal status or the attempt budget runs out. The polling loop
// blocks the calling goroutine for its whole duration; the only early exits
// are a terminal status and context cancellation.
//
// When the configured image model is "qwen-image" the adapter switches to a
// single multimodal call instead of task submission, extracting image URLs
// from either reply shape the endpoint produces.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider("dashscope"),
//	    ai.WithDashScopeAPIKey(os.Getenv("DASHSCOPE_API_KEY")),
//	)
//
//	svc, err := dashscope.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
package dashscope
