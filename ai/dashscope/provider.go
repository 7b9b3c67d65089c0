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


package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
)

// requestTimeout bounds every DashScope API call. Image downloads carry
// their own shorter timeout inside the image writer.
const requestTimeout = 120 * time.Second

const (
	textGenerationPath = "/api/v1/services/aigc/text-generation/generation"
	imageSynthesisPath = "/api/v1/services/aigc/text2image/image-synthesis"
	multiModalPath     = "/api/v1/services/aigc/multimodal-generation/generation"
	tasksPath          = "/api/v1/tasks/"
)

// qwenImageModel switches image generation from task submission to a single
// multimodal call.
const qwenImageModel = "qwen-image"

const (
	resultFormatMessage = "message"
	textTemperature     = 0.7
	textMaxTokens       = 2000
	imageSize           = "1024*1024"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Service implements ai.Service using DashScope Qianwen for text and
// Wanxiang or Qwen-Image for images.
type Service struct {
	cfg    *ai.Config
	client *http.Client
	images *ai.ImageWriter
	logger *slog.Logger
}

// newService is an internal constructor that returns the concrete type.
func newService(cfg *ai.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
		images: ai.NewImageWriter(ai.ProviderDashScope),
		logger: slog.Default().With("component", "dashscope-service"),
	}, nil
}

// NewService creates the DashScope adapter using the provided configuration.
// The config is validated and normalized before use.
//
// Returns ai.Service interface (not *Service) to enforce abstraction.
func NewService(cfg *ai.Config) (ai.Service, error) {
	return newService(cfg)
}

// Name returns the provider name used in configuration and the fallback chain.
func (s *Service) Name() string {
	return ai.ProviderDashScope
}

// IsAvailable reports whether the DashScope credential is configured.
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.cfg.DashScopeAPIKey == "" {
		s.logger.Warn("DASHSCOPE_API_KEY is not configured")
		return false
	}
	return true
}

// GenerateTextContent asks a Qianwen model for a structured note about the
// topic. The reply is normalized; malformed output degrades to the heuristic
// fallback rather than an error.
func (s *Service) GenerateTextContent(ctx context.Context, topic string) (*core.Note, error) {
	if s.cfg.DashScopeAPIKey == "" {
		return nil, fmt.Errorf("dashscope: %w", ai.ErrNotConfigured)
	}

	s.logger.Info("generating note text", "model", s.cfg.QwenModel)
	body, err := json.Marshal(textGenerationRequest{
		Model: s.cfg.QwenModel,
		Input: textInput{Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(topic)},
		}},
		Parameters: textParameters{
			ResultFormat: resultFormatMessage,
			Temperature:  textTemperature,
			MaxTokens:    textMaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal text request: %w", err)
	}

	data, err := s.doJSON(ctx, http.MethodPost, s.cfg.DashScopeBaseURL+textGenerationPath, body, false)
	if err != nil {
		s.logger.Error("text generation failed", "err", err)
		return nil, err
	}

	var parsed textGenerationResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode text response: %w", err)
	}
	if len(parsed.Output.Choices) == 0 {
		return nil, fmt.Errorf("qianwen: %w", ai.ErrEmptyReply)
	}

	reply := parsed.Output.Choices[0].Message.Content
	s.logger.Debug("generated content", "reply", ai.Snippet([]byte(reply)))
	return ai.NormalizeReply(reply, ai.DashScopeFallback), nil
}

// GenerateImages generates pictures and saves them under saveDir. The
// configured image model decides the path: "qwen-image" performs one
// multimodal call, anything else submits a Wanxiang task and polls it.
// Per-image download failures are skipped; the saved subset is returned.
func (s *Service) GenerateImages(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error) {
	if s.cfg.DashScopeAPIKey == "" {
		return nil, fmt.Errorf("dashscope: %w", ai.ErrNotConfigured)
	}

	prompt := imagePrompt
	if prompt == "" {
		prompt = buildImagePrompt(content)
	}
	s.logger.Info("generating images",
		"model", s.cfg.WanxModel,
		"count", numImages,
		"prompt", core.TruncateRunes(prompt, 100))

	if s.cfg.WanxModel == qwenImageModel {
		return s.generateWithQwenImage(ctx, prompt, saveDir, numImages)
	}
	return s.generateWithWanxiang(ctx, prompt, saveDir, numImages)
}

// Close releases resources held by the service.
// Currently a no-op as the HTTP client requires no explicit cleanup.
func (s *Service) Close() error {
	s.logger.Debug("closing dashscope service")
	return nil
}

// generateWithWanxiang submits an asynchronous synthesis task and polls it
// to completion, then downloads the result URLs.
func (s *Service) generateWithWanxiang(ctx context.Context, prompt, saveDir string, numImages int) ([]string, error) {
	task, err := s.submitSynthesis(ctx, prompt, numImages)
	if err != nil {
		s.logger.Error("task submission failed", "err", err)
		return nil, err
	}
	s.logger.Info("image synthesis task submitted", "task", task.ID)

	results, err := s.pollTask(ctx, task)
	if err != nil {
		s.logger.Error("image synthesis did not complete", "task", task.ID, "err", err)
		return nil, err
	}

	paths := make([]string, 0, len(results))
	for i, res := range results {
		if res.URL == "" {
			s.logger.Warn("result without URL", "index", i+1, "code", res.Code, "message", res.Message)
			continue
		}
		path, err := s.images.Download(ctx, res.URL, saveDir, i)
		if err != nil {
			s.logger.Error("failed to save image", "index", i+1, "err", err)
			continue
		}
		paths = append(paths, path)
	}
	s.logger.Info("images saved", "saved", len(paths), "requested", numImages)
	return paths, nil
}

// submitSynthesis starts one asynchronous image synthesis task.
func (s *Service) submitSynthesis(ctx context.Context, prompt string, numImages int) (*AsyncTask, error) {
	body, err := json.Marshal(synthesisRequest{
		Model:      s.cfg.WanxModel,
		Input:      synthesisInput{Prompt: prompt},
		Parameters: synthesisParameters{N: numImages, Size: imageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	data, err := s.doJSON(ctx, http.MethodPost, s.cfg.DashScopeBaseURL+imageSynthesisPath, body, true)
	if err != nil {
		return nil, err
	}

	var parsed taskResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode submission response: %w", err)
	}
	if parsed.Output.TaskID == "" {
		return nil, fmt.Errorf("submission reply carries no task id: %s", ai.Snippet(data))
	}
	return newAsyncTask(parsed.Output.TaskID), nil
}

// pollTask drives a submitted task to a terminal state. Each attempt sleeps
// the configured interval first, then queries the task endpoint; a failed
// status query costs the attempt but does not end the task. The attempt
// budget converts a stuck task into a timeout.
func (s *Service) pollTask(ctx context.Context, task *AsyncTask) ([]taskResult, error) {
	for attempt := 1; attempt <= s.cfg.MaxPollAttempts; attempt++ {
		timer := time.NewTimer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		out, err := s.fetchTask(ctx, task.ID)
		if err != nil {
			s.logger.Warn("task status query failed", "task", task.ID, "attempt", attempt, "err", err)
			continue
		}

		task.Advance(out.TaskStatus)
		s.logger.Info("polling task",
			"task", task.ID,
			"attempt", attempt,
			"of", s.cfg.MaxPollAttempts,
			"status", out.TaskStatus)

		switch task.State {
		case StateSucceeded:
			return out.Results, nil
		case StateFailed:
			return nil, fmt.Errorf("task %s: %w", task.ID, ErrTaskFailed)
		}
	}

	task.State = StateTimedOut
	return nil, fmt.Errorf("task %s after %d attempts: %w", task.ID, s.cfg.MaxPollAttempts, ErrTaskTimedOut)
}

// fetchTask queries the status of one task.
func (s *Service) fetchTask(ctx context.Context, id string) (*taskOutput, error) {
	data, err := s.doJSON(ctx, http.MethodGet, s.cfg.DashScopeBaseURL+tasksPath+id, nil, false)
	if err != nil {
		return nil, err
	}

	var parsed taskResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode task response: %w", err)
	}
	return &parsed.Output, nil
}

// generateWithQwenImage performs one multimodal call and downloads whatever
// image URLs the reply carries.
func (s *Service) generateWithQwenImage(ctx context.Context, prompt, saveDir string, numImages int) ([]string, error) {
	body, err := json.Marshal(multiModalRequest{
		Model: s.cfg.WanxModel,
		Input: multiModalInput{Messages: []multiModalMessage{
			{Role: "user", Content: []map[string]string{{"text": prompt}}},
		}},
		Parameters: multiModalParameters{
			ResultFormat: resultFormatMessage,
			Watermark:    true,
			PromptExtend: true,
			Size:         imageSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal multimodal request: %w", err)
	}

	data, err := s.doJSON(ctx, http.MethodPost, s.cfg.DashScopeBaseURL+multiModalPath, body, false)
	if err != nil {
		s.logger.Error("qwen-image generation failed", "err", err)
		return nil, err
	}

	var parsed multiModalResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode multimodal response: %w", err)
	}
	if len(parsed.Output.Choices) == 0 {
		return nil, fmt.Errorf("qwen-image: %w", ai.ErrEmptyReply)
	}

	urls := extractImageURLs(parsed.Output.Choices[0].Message.Content, numImages)
	if len(urls) == 0 {
		return nil, fmt.Errorf("qwen-image reply carries no image URL: %w", ai.ErrEmptyReply)
	}

	paths := make([]string, 0, len(urls))
	for i, url := range urls {
		path, err := s.images.Download(ctx, url, saveDir, i)
		if err != nil {
			s.logger.Error("failed to save image", "index", i+1, "err", err)
			continue
		}
		paths = append(paths, path)
	}
	s.logger.Info("images saved", "saved", len(paths), "requested", numImages)
	return paths, nil
}

// extractImageURLs handles both reply shapes of the multimodal endpoint:
// a list of content items carrying image entries, or a plain string with
// URLs embedded in the text.
func extractImageURLs(content json.RawMessage, limit int) []string {
	var items []map[string]string
	if err := json.Unmarshal(content, &items); err == nil {
		urls := make([]string, 0, len(items))
		for _, item := range items {
			if url, ok := item["image"]; ok && url != "" {
				urls = append(urls, url)
			}
		}
		return urls
	}

	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return nil
	}
	urls := urlPattern.FindAllString(text, -1)
	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls
}

// doJSON sends one authenticated request and returns the body of a 200
// reply. Submissions set the async header demanded by the synthesis API.
func (s *Service) doJSON(ctx context.Context, method, url string, body []byte, async bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.DashScopeAPIKey)
	if async {
		req.Header.Set("X-DashScope-Async", "enable")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, ai.Snippet(data))
	}
	return data, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textInput struct {
	Messages []message `json:"messages"`
}

type textParameters struct {
	ResultFormat string  `json:"result_format"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

type textGenerationRequest struct {
	Model      string         `json:"model"`
	Input      textInput      `json:"input"`
	Parameters textParameters `json:"parameters"`
}

type textGenerationResponse struct {
	Output struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type synthesisInput struct {
	Prompt string `json:"prompt"`
}

type synthesisParameters struct {
	N    int    `json:"n"`
	Size string `json:"size"`
}

type synthesisRequest struct {
	Model      string              `json:"model"`
	Input      synthesisInput      `json:"input"`
	Parameters synthesisParameters `json:"parameters"`
}

type taskResult struct {
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type taskOutput struct {
	TaskID     string       `json:"task_id"`
	TaskStatus string       `json:"task_status"`
	Results    []taskResult `json:"results"`
}

type taskResponse struct {
	Output    taskOutput `json:"output"`
	RequestID string     `json:"request_id"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
}

type multiModalMessage struct {
	Role    string              `json:"role"`
	Content []map[string]string `json:"content"`
}

type multiModalInput struct {
	Messages []multiModalMessage `json:"messages"`
}

type multiModalParameters struct {
	ResultFormat string `json:"result_format"`
	Watermark    bool   `json:"watermark"`
	PromptExtend bool   `json:"prompt_extend"`
	Size         string `json:"size"`
}

type multiModalRequest struct {
	Model      string               `json:"model"`
	Input      multiModalInput      `json:"input"`
	Parameters multiModalParameters `json:"parameters"`
}

type multiModalResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
