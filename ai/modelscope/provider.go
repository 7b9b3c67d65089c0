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


package modelscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// probeTimeout bounds the availability check; the probe must stay cheap.
	probeTimeout = 10 * time.Second

	// imageRequestTimeout bounds one hosted image generation call.
	imageRequestTimeout = 60 * time.Second
)

const (
	textTemperature = 0.7
	textMaxTokens   = 2000
	imageSize       = "1024x1024"
)

// Service implements ai.Service using ModelScope API-Inference: an
// OpenAI-compatible chat endpoint for text and the hosted model endpoint
// for images.
type Service struct {
	cfg    *ai.Config
	chat   llms.Model
	client *http.Client
	images *ai.ImageWriter
	logger *slog.Logger
}

// newService is an internal constructor that returns the concrete type.
// The chat client is only built when a credential is present; without one
// the service reports unavailable instead of failing construction.
func newService(cfg *ai.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var chat llms.Model
	if cfg.ModelScopeAPIKey != "" {
		client, err := openai.New(
			openai.WithBaseURL(cfg.ModelScopeBaseURL),
			openai.WithToken(cfg.ModelScopeAPIKey),
			openai.WithModel(cfg.MSTextModel),
		)
		if err != nil {
			return nil, err
		}
		chat = client
	}

	return &Service{
		cfg:    cfg,
		chat:   chat,
		client: &http.Client{Timeout: imageRequestTimeout},
		images: ai.NewImageWriter(ai.ProviderModelScope),
		logger: slog.Default().With("component", "modelscope-service"),
	}, nil
}

// NewService creates the ModelScope adapter using the provided configuration.
// The config is validated and normalized before use.
//
// Returns ai.Service interface (not *Service) to enforce abstraction.
func NewService(cfg *ai.Config) (ai.Service, error) {
	return newService(cfg)
}

// Name returns the provider name used in configuration and the fallback chain.
func (s *Service) Name() string {
	return ai.ProviderModelScope
}

// IsAvailable reports whether the credential is configured and the models
// endpoint answers. This provider performs a live connectivity probe because
// its free tier rejects keys silently; a present key alone proves nothing.
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.cfg.ModelScopeAPIKey == "" {
		s.logger.Warn("MODELSCOPE_API_KEY is not configured")
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.cfg.ModelScopeBaseURL+"/models", nil)
	if err != nil {
		s.logger.Warn("API probe failed", "err", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ModelScopeAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("API probe failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("API probe rejected", "status", resp.StatusCode)
		return false
	}
	return true
}

// GenerateTextContent asks the configured chat model for a structured note
// about the topic. The reply is normalized; malformed output degrades to the
// heuristic fallback rather than an error.
func (s *Service) GenerateTextContent(ctx context.Context, topic string) (*core.Note, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("modelscope: %w", ai.ErrNotConfigured)
	}

	s.logger.Info("generating note text",
		"model", s.cfg.MSTextModel,
		"thinking", s.thinkingRequested())

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserMessage(topic)),
			},
		},
	}

	response, err := s.chat.GenerateContent(ctx, content,
		llms.WithTemperature(textTemperature),
		llms.WithMaxTokens(textMaxTokens))
	if err != nil {
		s.logger.Error("text generation failed", "err", err)
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("modelscope: %w", ai.ErrEmptyReply)
	}

	reply := response.Choices[0].Content
	s.logger.Debug("raw response", "reply", ai.Snippet([]byte(reply)))
	return ai.NormalizeReply(reply, ai.ModelScopeFallback), nil
}

// GenerateImages generates pictures with the hosted image model and saves
// them under saveDir. The endpoint answers with either inline base64
// payloads or a URL list; both shapes are handled. Per-image failures are
// skipped; the saved subset is returned.
func (s *Service) GenerateImages(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error) {
	if s.cfg.ModelScopeAPIKey == "" {
		return nil, fmt.Errorf("modelscope: %w", ai.ErrNotConfigured)
	}

	prompt := imagePrompt
	if prompt == "" {
		prompt = buildImagePrompt(content)
	}
	s.logger.Info("generating images",
		"model", s.cfg.MSImageModel,
		"count", numImages,
		"prompt", core.TruncateRunes(prompt, 100))

	parsed, err := s.generate(ctx, prompt, numImages)
	if err != nil {
		s.logger.Error("image generation failed", "err", err)
		return nil, err
	}

	var paths []string
	switch {
	case len(parsed.Images) > 0:
		// Inline base64 payloads
		paths = make([]string, 0, len(parsed.Images))
		for i, data := range parsed.Images {
			path, err := s.images.SaveBase64(saveDir, i, data)
			if err != nil {
				s.logger.Error("failed to save image", "index", i+1, "err", err)
				continue
			}
			paths = append(paths, path)
		}
	case len(parsed.Output.Images) > 0:
		// Remote URL list
		paths = make([]string, 0, len(parsed.Output.Images))
		for i, url := range parsed.Output.Images {
			path, err := s.images.Download(ctx, url, saveDir, i)
			if err != nil {
				s.logger.Error("failed to save image", "index", i+1, "err", err)
				continue
			}
			paths = append(paths, path)
		}
	default:
		return nil, fmt.Errorf("reply carries no image payload: %w", ai.ErrEmptyReply)
	}

	s.logger.Info("images saved", "saved", len(paths), "requested", numImages)
	return paths, nil
}

// Close releases resources held by the service.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (s *Service) Close() error {
	s.logger.Debug("closing modelscope service")
	return nil
}

// thinkingRequested reports whether the thinking toggle applies: it is only
// honored for models advertising thinking support in their name.
func (s *Service) thinkingRequested() bool {
	return s.cfg.MSEnableThinking && strings.Contains(strings.ToLower(s.cfg.MSTextModel), "thinking")
}

type imageGenerationInput struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageGenerationRequest struct {
	Model string               `json:"model"`
	Input imageGenerationInput `json:"input"`
}

// imageGenerationResponse covers both reply shapes of the hosted endpoint.
type imageGenerationResponse struct {
	Images []string `json:"images"`
	Output struct {
		Images []string `json:"images"`
	} `json:"output"`
}

// generate performs one hosted image generation call. The endpoint lives at
// the site root, not under the OpenAI-compatible /v1 prefix.
func (s *Service) generate(ctx context.Context, prompt string, numImages int) (*imageGenerationResponse, error) {
	body, err := json.Marshal(imageGenerationRequest{
		Model: s.cfg.MSImageModel,
		Input: imageGenerationInput{Prompt: prompt, N: numImages, Size: imageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	root := strings.TrimSuffix(s.cfg.ModelScopeBaseURL, "/v1")
	url := fmt.Sprintf("%s/api/v1/models/%s/generate", root, s.cfg.MSImageModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.ModelScopeAPIKey)

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

	var parsed imageGenerationResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	return &parsed, nil
}
