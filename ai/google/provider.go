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


package google

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
)

// requestTimeout bounds every Generative Language API call. Imagen predict
// calls are the slowest operation this adapter performs.
const requestTimeout = 180 * time.Second

// promptOptimizerModel is the fixed model used to turn note text into an
// Imagen prompt, independent of the configured text model.
const promptOptimizerModel = "gemini-1.5-flash"

// Service implements ai.Service using Google Gemini for text and Imagen for
// images. It manages a single HTTP client against the Generative Language API.
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
		images: ai.NewImageWriter(ai.ProviderGoogle),
		logger: slog.Default().With("component", "google-service"),
	}, nil
}

// NewService creates the Google adapter using the provided configuration.
// The config is validated and normalized before use.
//
// Returns ai.Service interface (not *Service) to enforce abstraction
// and prevent coupling to Google-specific implementation details.
func NewService(cfg *ai.Config) (ai.Service, error) {
	return newService(cfg)
}

// Name returns the provider name used in configuration and the fallback chain.
func (s *Service) Name() string {
	return ai.ProviderGoogle
}

// IsAvailable reports whether both the Gemini and Imagen credentials are
// configured. No network probe is performed for this provider.
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.cfg.GeminiAPIKey == "" {
		s.logger.Warn("GEMINI_API_KEY is not configured")
		return false
	}
	if s.cfg.ImagenAPIKey == "" {
		s.logger.Warn("IMAGEN_API_KEY is not configured")
		return false
	}
	return true
}

// GenerateTextContent asks Gemini for a structured note about the topic.
// The reply is normalized; malformed output degrades to the heuristic
// fallback rather than an error.
func (s *Service) GenerateTextContent(ctx context.Context, topic string) (*core.Note, error) {
	if s.cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrNotConfigured)
	}

	s.logger.Info("generating note text", "model", s.cfg.GeminiModel)
	reply, err := s.generateText(ctx, s.cfg.GeminiModel, buildNotePrompt(topic))
	if err != nil {
		s.logger.Error("gemini text generation failed", "err", err)
		return nil, err
	}
	return ai.NormalizeReply(reply, ai.GoogleFallback), nil
}

// GenerateImages generates numImages pictures with Imagen and saves them
// under saveDir. When imagePrompt is empty, a prompt is derived from the
// note content by a second Gemini call. Images that fail to decode are
// skipped; the successfully saved subset is returned.
func (s *Service) GenerateImages(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error) {
	if s.cfg.ImagenAPIKey == "" {
		return nil, fmt.Errorf("imagen: %w", ai.ErrNotConfigured)
	}

	prompt := imagePrompt
	if prompt == "" {
		prompt = s.optimizeImagePrompt(ctx, content)
	}
	s.logger.Info("generating images",
		"model", s.cfg.ImagenModel,
		"count", numImages,
		"prompt", core.TruncateRunes(prompt, 100))

	predictions, err := s.predictImages(ctx, prompt, numImages)
	if err != nil {
		s.logger.Error("imagen generation failed", "err", err)
		return nil, err
	}

	paths := make([]string, 0, len(predictions))
	for i, pred := range predictions {
		path, err := s.images.SaveBase64(saveDir, i, pred.BytesBase64Encoded)
		if err != nil {
			s.logger.Error("failed to save image", "index", i+1, "err", err)
			continue
		}
		paths = append(paths, path)
	}
	s.logger.Info("images saved", "saved", len(paths), "requested", numImages)
	return paths, nil
}

// Close releases resources held by the service.
// Currently a no-op as the HTTP client requires no explicit cleanup.
func (s *Service) Close() error {
	s.logger.Debug("closing google service")
	return nil
}

// optimizeImagePrompt asks Gemini for an Imagen-ready scene description.
// Failures degrade to the plain template prompt; image generation proceeds
// either way.
func (s *Service) optimizeImagePrompt(ctx context.Context, content string) string {
	if s.cfg.GeminiAPIKey == "" {
		return fallbackImagePrompt(content)
	}

	reply, err := s.generateText(ctx, promptOptimizerModel, buildOptimizerPrompt(content))
	if err != nil {
		s.logger.Warn("image prompt optimization failed", "err", err)
		return fallbackImagePrompt(content)
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return fallbackImagePrompt(content)
	}
	return reply
}

type contentPart struct {
	Text string `json:"text"`
}

type contentBlock struct {
	Parts []contentPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []contentBlock `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content contentBlock `json:"content"`
	} `json:"candidates"`
}

// generateText performs one generateContent call and returns the joined text
// parts of the first candidate.
func (s *Service) generateText(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []contentBlock{{Parts: []contentPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.cfg.GoogleBaseURL, model)
	data, err := s.post(ctx, url, body)
	if err != nil {
		return "", err
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", ai.ErrEmptyReply)
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int `json:"sampleCount"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

// predictImages performs one Imagen predict call and returns the raw
// predictions.
func (s *Service) predictImages(ctx context.Context, prompt string, numImages int) ([]prediction, error) {
	body, err := json.Marshal(predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: numImages},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal imagen request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:predict", s.cfg.GoogleBaseURL, s.cfg.ImagenModel)
	data, err := s.postWithKey(ctx, url, body, s.cfg.ImagenAPIKey)
	if err != nil {
		return nil, err
	}

	var parsed predictResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode imagen response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("imagen: %w", ai.ErrEmptyReply)
	}
	return parsed.Predictions, nil
}

// post sends an authenticated request using the Gemini credential.
func (s *Service) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return s.postWithKey(ctx, url, body, s.cfg.GeminiAPIKey)
}

// postWithKey sends one JSON POST with the x-goog-api-key header and returns
// the response body of a 200 reply.
func (s *Service) postWithKey(ctx context.Context, url string, body []byte, apiKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

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
