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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGoogle, cfg.Provider)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, DefaultImagenModel, cfg.ImagenModel)
	assert.Equal(t, DefaultGoogleBaseURL, cfg.GoogleBaseURL)
	assert.Equal(t, DefaultQwenModel, cfg.QwenModel)
	assert.Equal(t, DefaultWanxModel, cfg.WanxModel)
	assert.Equal(t, DefaultDashScopeBaseURL, cfg.DashScopeBaseURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.MaxPollAttempts)
	assert.Equal(t, DefaultMSTextModel, cfg.MSTextModel)
	assert.Equal(t, DefaultMSImageModel, cfg.MSImageModel)
	assert.Equal(t, DefaultModelScopeBaseURL, cfg.ModelScopeBaseURL)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Empty(t, cfg.DashScopeAPIKey)
	assert.Empty(t, cfg.ModelScopeAPIKey)
	assert.False(t, cfg.MSEnableThinking)
}

func TestNewConfig(t *testing.T) {
	t.Run("no options returns defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderDashScope),
			WithGeminiAPIKey("gem-key"),
			WithGeminiModel("gemini-2.0-flash"),
			WithImagenAPIKey("img-key"),
			WithImagenModel("imagen-4"),
			WithGoogleBaseURL("https://google.example.com"),
			WithDashScopeAPIKey("ds-key"),
			WithQwenModel("qwen-max"),
			WithWanxModel("qwen-image"),
			WithDashScopeBaseURL("https://ds.example.com"),
			WithPollInterval(5*time.Second),
			WithMaxPollAttempts(60),
			WithModelScopeAPIKey("ms-key"),
			WithMSTextModel("Qwen/Qwen3-32B"),
			WithMSImageModel("black-forest-labs/FLUX.1-dev"),
			WithMSEnableThinking(true),
			WithModelScopeBaseURL("https://ms.example.com/v1"),
		)

		assert.Equal(t, ProviderDashScope, cfg.Provider)
		assert.Equal(t, "gem-key", cfg.GeminiAPIKey)
		assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
		assert.Equal(t, "img-key", cfg.ImagenAPIKey)
		assert.Equal(t, "imagen-4", cfg.ImagenModel)
		assert.Equal(t, "https://google.example.com", cfg.GoogleBaseURL)
		assert.Equal(t, "ds-key", cfg.DashScopeAPIKey)
		assert.Equal(t, "qwen-max", cfg.QwenModel)
		assert.Equal(t, "qwen-image", cfg.WanxModel)
		assert.Equal(t, "https://ds.example.com", cfg.DashScopeBaseURL)
		assert.Equal(t, 5*time.Second, cfg.PollInterval)
		assert.Equal(t, 60, cfg.MaxPollAttempts)
		assert.Equal(t, "ms-key", cfg.ModelScopeAPIKey)
		assert.Equal(t, "Qwen/Qwen3-32B", cfg.MSTextModel)
		assert.Equal(t, "black-forest-labs/FLUX.1-dev", cfg.MSImageModel)
		assert.True(t, cfg.MSEnableThinking)
		assert.Equal(t, "https://ms.example.com/v1", cfg.ModelScopeBaseURL)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("trims trailing slash from base URLs", func(t *testing.T) {
		cfg := NewConfig(
			WithGoogleBaseURL("https://google.example.com/"),
			WithDashScopeBaseURL("https://ds.example.com/"),
		)
		cfg.Normalize()

		assert.Equal(t, "https://google.example.com", cfg.GoogleBaseURL)
		assert.Equal(t, "https://ds.example.com", cfg.DashScopeBaseURL)
	})

	t.Run("adds v1 suffix to ModelScope URL", func(t *testing.T) {
		cfg := NewConfig(WithModelScopeBaseURL("https://ms.example.com"))
		cfg.Normalize()

		assert.Equal(t, "https://ms.example.com/v1", cfg.ModelScopeBaseURL)
	})

	t.Run("handles ModelScope URL with trailing slash", func(t *testing.T) {
		cfg := NewConfig(WithModelScopeBaseURL("https://ms.example.com/"))
		cfg.Normalize()

		assert.Equal(t, "https://ms.example.com/v1", cfg.ModelScopeBaseURL)
	})

	t.Run("leaves existing v1 suffix alone", func(t *testing.T) {
		cfg := NewConfig(WithModelScopeBaseURL("https://ms.example.com/v1"))
		cfg.Normalize()

		assert.Equal(t, "https://ms.example.com/v1", cfg.ModelScopeBaseURL)
	})

	t.Run("lowercases and trims provider name", func(t *testing.T) {
		cfg := NewConfig(WithProvider("  Google "))
		cfg.Normalize()

		assert.Equal(t, ProviderGoogle, cfg.Provider)
	})

	t.Run("normalize is idempotent", func(t *testing.T) {
		cfg := NewConfig(WithModelScopeBaseURL("https://ms.example.com"))
		cfg.Normalize()
		first := cfg.ModelScopeBaseURL
		cfg.Normalize()

		assert.Equal(t, first, cfg.ModelScopeBaseURL)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("valid without credentials", func(t *testing.T) {
		// Missing keys make services unavailable, not the config invalid.
		cfg := NewConfig(WithProvider(ProviderDashScope))
		require.NoError(t, cfg.Validate())
	})

	t.Run("validate normalizes first", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("GOOGLE"),
			WithModelScopeBaseURL("https://ms.example.com/"),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, ProviderGoogle, cfg.Provider)
		assert.Equal(t, "https://ms.example.com/v1", cfg.ModelScopeBaseURL)
	})

	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr string
	}{
		{
			name:    "unknown provider",
			opts:    []ConfigOption{WithProvider("openai")},
			wantErr: "Provider",
		},
		{
			name:    "empty provider",
			opts:    []ConfigOption{WithProvider("")},
			wantErr: "Provider",
		},
		{
			name:    "empty gemini model",
			opts:    []ConfigOption{WithGeminiModel("")},
			wantErr: "GeminiModel",
		},
		{
			name:    "empty imagen model",
			opts:    []ConfigOption{WithImagenModel("")},
			wantErr: "ImagenModel",
		},
		{
			name:    "empty google base URL",
			opts:    []ConfigOption{WithGoogleBaseURL("")},
			wantErr: "GoogleBaseURL",
		},
		{
			name:    "empty qwen model",
			opts:    []ConfigOption{WithQwenModel("")},
			wantErr: "QwenModel",
		},
		{
			name:    "empty wanx model",
			opts:    []ConfigOption{WithWanxModel("")},
			wantErr: "WanxModel",
		},
		{
			name:    "empty dashscope base URL",
			opts:    []ConfigOption{WithDashScopeBaseURL("")},
			wantErr: "DashScopeBaseURL",
		},
		{
			name:    "zero poll interval",
			opts:    []ConfigOption{WithPollInterval(0)},
			wantErr: "PollInterval",
		},
		{
			name:    "negative poll interval",
			opts:    []ConfigOption{WithPollInterval(-time.Second)},
			wantErr: "PollInterval",
		},
		{
			name:    "zero poll attempts",
			opts:    []ConfigOption{WithMaxPollAttempts(0)},
			wantErr: "MaxPollAttempts",
		},
		{
			name:    "poll attempts above budget",
			opts:    []ConfigOption{WithMaxPollAttempts(61)},
			wantErr: "MaxPollAttempts",
		},
		{
			name:    "empty modelscope text model",
			opts:    []ConfigOption{WithMSTextModel("")},
			wantErr: "MSTextModel",
		},
		{
			name:    "empty modelscope image model",
			opts:    []ConfigOption{WithMSImageModel("")},
			wantErr: "MSImageModel",
		},
		{
			name:    "empty modelscope base URL",
			opts:    []ConfigOption{WithModelScopeBaseURL("")},
			wantErr: "ModelScopeBaseURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(tt.opts...)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
