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


// Package publish delivers finished notes to the xiaohongshu-mcp automation
// service over its JSON-RPC 2.0 endpoint.
//
// The collaborator exposes a single tool, publish_content, invoked through
// the standard tools/call method. The client owns the wire envelope and the
// preconditions the tool imposes: at least one image, absolute image paths
// that exist on disk, and a title within the platform's 20-rune limit.
//
// Success is judged by the envelope alone: a 2xx reply whose body carries a
// result member and no error member. The tool's result payload is free-form
// prose and is deliberately not inspected.
package publish
