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

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Config holds configuration for every AI service provider. One Config is
// built at startup from flags and environment and passed to each adapter's
// constructor; there is no process-global state.
//
// Credentials are deliberately NOT part of Validate: a missing key makes the
// corresponding service report unavailable, which is what drives the fallback
// chain. Validate only rejects settings that no chain walk could recover from.
type Config struct {
	// Provider is the preferred provider name walked first by the fallback
	// chain. One of "google", "modelscope", "dashscope".
	Provider string

	// GeminiAPIKey authenticates Gemini text generation requests.
	GeminiAPIKey string

	// GeminiModel is the Gemini model identifier for text generation.
	// Example: "gemini-1.5-flash"
	GeminiModel string

	// ImagenAPIKey authenticates Imagen image generation requests.
	ImagenAPIKey string

	// ImagenModel is the Imagen model identifier for image generation.
	// Example: "imagen-3"
	ImagenModel string

	// GoogleBaseURL is the Generative Language API endpoint.
	GoogleBaseURL string

	// DashScopeAPIKey authenticates all DashScope requests.
	DashScopeAPIKey string

	// QwenModel is the Qianwen model identifier for text generation.
	// Example: "qwen-plus"
	QwenModel string

	// WanxModel is the Wanxiang model identifier for image synthesis.
	// The special value "qwen-image" switches the adapter to the multimodal
	// image path instead of task submission.
	WanxModel string

	// DashScopeBaseURL is the DashScope API endpoint.
	DashScopeBaseURL string

	// PollInterval is the fixed sleep between task status polls.
	// Default: 2s
	PollInterval time.Duration

	// MaxPollAttempts bounds the task polling loop. A task that reaches no
	// terminal status within this many polls is treated as timed out.
	// Default: 30, valid range 1-60.
	MaxPollAttempts int

	// ModelScopeAPIKey authenticates ModelScope API-Inference requests.
	ModelScopeAPIKey string

	// MSTextModel is the ModelScope text model identifier.
	// Example: "Qwen/Qwen2.5-72B-Instruct"
	MSTextModel string

	// MSImageModel is the ModelScope image model identifier.
	// Example: "MusePublic/489_ckpt_FLUX_1"
	MSImageModel string

	// MSEnableThinking requests thinking mode for ModelScope models whose
	// name advertises it.
	MSEnableThinking bool

	// ModelScopeBaseURL is the OpenAI-compatible ModelScope endpoint,
	// normalized to carry the /v1 suffix.
	ModelScopeBaseURL string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the preferred provider name.
func WithProvider(name string) ConfigOption {
	return func(c *Config) {
		c.Provider = name
	}
}

// WithGeminiAPIKey sets the Gemini credential.
func WithGeminiAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.GeminiAPIKey = key
	}
}

// WithGeminiModel sets the Gemini model identifier.
func WithGeminiModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeminiModel = model
	}
}

// WithImagenAPIKey sets the Imagen credential.
func WithImagenAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.ImagenAPIKey = key
	}
}

// WithImagenModel sets the Imagen model identifier.
func WithImagenModel(model string) ConfigOption {
	return func(c *Config) {
		c.ImagenModel = model
	}
}

// WithGoogleBaseURL sets the Generative Language API endpoint.
func WithGoogleBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.GoogleBaseURL = url
	}
}

// WithDashScopeAPIKey sets the DashScope credential.
func WithDashScopeAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.DashScopeAPIKey = key
	}
}

// WithQwenModel sets the Qianwen text model identifier.
func WithQwenModel(model string) ConfigOption {
	return func(c *Config) {
		c.QwenModel = model
	}
}

// WithWanxModel sets the Wanxiang image model identifier.
func WithWanxModel(model string) ConfigOption {
	return func(c *Config) {
		c.WanxModel = model
	}
}

// WithDashScopeBaseURL sets the DashScope API endpoint.
func WithDashScopeBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.DashScopeBaseURL = url
	}
}

// WithPollInterval sets the sleep between task status polls.
func WithPollInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithMaxPollAttempts sets the task polling attempt budget.
func WithMaxPollAttempts(attempts int) ConfigOption {
	return func(c *Config) {
		c.MaxPollAttempts = attempts
	}
}

// WithModelScopeAPIKey sets the ModelScope credential.
func WithModelScopeAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.ModelScopeAPIKey = key
	}
}

// WithMSTextModel sets the ModelScope text model identifier.
func WithMSTextModel(model string) ConfigOption {
	return func(c *Config) {
		c.MSTextModel = model
	}
}

// WithMSImageModel sets the ModelScope image model identifier.
func WithMSImageModel(model string) ConfigOption {
	return func(c *Config) {
		c.MSImageModel = model
	}
}

// WithMSEnableThinking toggles thinking mode for ModelScope text models.
func WithMSEnableThinking(enabled bool) ConfigOption {
	return func(c *Config) {
		c.MSEnableThinking = enabled
	}
}

// WithModelScopeBaseURL sets the ModelScope OpenAI-compatible endpoint.
func WithModelScopeBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.ModelScopeBaseURL = url
	}
}

// DefaultConfig returns a Config with the stock endpoints, default models,
// and an empty credential set.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		GeminiModel:       DefaultGeminiModel,
		ImagenModel:       DefaultImagenModel,
		GoogleBaseURL:     DefaultGoogleBaseURL,
		QwenModel:         DefaultQwenModel,
		WanxModel:         DefaultWanxModel,
		DashScopeBaseURL:  DefaultDashScopeBaseURL,
		PollInterval:      2 * time.Second,
		MaxPollAttempts:   30,
		MSTextModel:       DefaultMSTextModel,
		MSImageModel:      DefaultMSImageModel,
		ModelScopeBaseURL: DefaultModelScopeBaseURL,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider("dashscope"),
//	    WithDashScopeAPIKey(key),
//	    WithWanxModel("qwen-image"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Base URLs lose their trailing slash, and the ModelScope endpoint gains the
// /v1 suffix required by OpenAI-compatible APIs if it is missing.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.GoogleBaseURL = strings.TrimSuffix(c.GoogleBaseURL, "/")
	c.DashScopeBaseURL = strings.TrimSuffix(c.DashScopeBaseURL, "/")
	if c.ModelScopeBaseURL != "" && !strings.HasSuffix(c.ModelScopeBaseURL, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.ModelScopeBaseURL = strings.TrimSuffix(c.ModelScopeBaseURL, "/")
		c.ModelScopeBaseURL = c.ModelScopeBaseURL + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first so provider names and URLs are in canonical form
	c.Normalize()

	if !slices.Contains(KnownProviders, c.Provider) {
		return errors.New("ai config: Provider must be one of google, modelscope, dashscope")
	}
	if c.GeminiModel == "" {
		return errors.New("ai config: GeminiModel is required")
	}
	if c.ImagenModel == "" {
		return errors.New("ai config: ImagenModel is required")
	}
	if c.GoogleBaseURL == "" {
		return errors.New("ai config: GoogleBaseURL is required")
	}
	if c.QwenModel == "" {
		return errors.New("ai config: QwenModel is required")
	}
	if c.WanxModel == "" {
		return errors.New("ai config: WanxModel is required")
	}
	if c.DashScopeBaseURL == "" {
		return errors.New("ai config: DashScopeBaseURL is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("ai config: PollInterval must be positive")
	}
	if c.MaxPollAttempts < 1 || c.MaxPollAttempts > 60 {
		return errors.New("ai config: MaxPollAttempts must be between 1 and 60")
	}
	if c.MSTextModel == "" {
		return errors.New("ai config: MSTextModel is required")
	}
	if c.MSImageModel == "" {
		return errors.New("ai config: MSImageModel is required")
	}
	if c.ModelScopeBaseURL == "" {
		return errors.New("ai config: ModelScopeBaseURL is required")
	}
	return nil
}
