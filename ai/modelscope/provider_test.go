package modelscope

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/rednote/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string, opts ...ai.ConfigOption) *ai.Config {
	base := []ai.ConfigOption{
		ai.WithProvider(ai.ProviderModelScope),
		ai.WithModelScopeAPIKey("ms-key"),
		ai.WithModelScopeBaseURL(baseURL),
	}
	return ai.NewConfig(append(base, opts...)...)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

// chatReply wraps text in the OpenAI-compatible completion shape the
// API-Inference endpoint answers with.
func chatReply(t *testing.T, text string) []byte {
	t.Helper()
	content, err := json.Marshal(text)
	require.NoError(t, err)
	return []byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "Qwen/Qwen2.5-72B-Instruct",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + string(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
	}`)
}

func TestServiceName(t *testing.T) {
	svc, err := newService(testConfig(ai.DefaultModelScopeBaseURL))
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderModelScope, svc.Name())
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("probe accepted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			assert.Equal(t, "Bearer ms-key", r.Header.Get("Authorization"))
			_, _ = rw.Write([]byte(`{"object": "list", "data": []}`))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)
		assert.True(t, svc.IsAvailable(ctx))
	})

	t.Run("probe rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)
		assert.False(t, svc.IsAvailable(ctx))
	})

	t.Run("endpoint unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		svc, err := newService(testConfig(url))
		require.NoError(t, err)
		assert.False(t, svc.IsAvailable(ctx))
	})

	t.Run("missing credential skips the probe", func(t *testing.T) {
		var hits int
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			hits++
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.ModelScopeAPIKey = ""
		svc, err := newService(cfg)
		require.NoError(t, err)

		assert.False(t, svc.IsAvailable(ctx))
		assert.Zero(t, hits)
	})
}

func TestGenerateTextContent(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the chat request and parses the note", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer ms-key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), ai.DefaultMSTextModel)
			assert.Contains(t, string(body), "小红书")
			assert.Contains(t, string(body), "请为以下主题创作小红书内容：健康早餐")

			_, _ = rw.Write(chatReply(t, `{"title": "早餐清单", "content": "十分钟搞定三款。", "tags": ["早餐", "减脂"]}`))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		note, err := svc.GenerateTextContent(ctx, "健康早餐")
		require.NoError(t, err)
		assert.Equal(t, "早餐清单", note.Title)
		assert.Equal(t, "十分钟搞定三款。", note.Content)
		assert.Equal(t, []string{"早餐", "减脂"}, note.Tags)
	})

	t.Run("malformed reply degrades to fallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			_, _ = rw.Write(chatReply(t, "标题行\n正文第一句。"))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		note, err := svc.GenerateTextContent(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, "标题行", note.Title)
		assert.Equal(t, ai.ModelScopeFallback.Tags, note.Tags)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusInternalServerError)
			_, _ = rw.Write([]byte(`{"error": {"message": "boom"}}`))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		note, err := svc.GenerateTextContent(ctx, "anything")
		require.Error(t, err)
		assert.Nil(t, note)
	})

	t.Run("missing credential", func(t *testing.T) {
		cfg := testConfig(ai.DefaultModelScopeBaseURL)
		cfg.ModelScopeAPIKey = ""
		svc, err := newService(cfg)
		require.NoError(t, err)

		_, err = svc.GenerateTextContent(ctx, "anything")
		require.ErrorIs(t, err, ai.ErrNotConfigured)
	})
}

func TestGenerateImages(t *testing.T) {
	ctx := context.Background()

	t.Run("inline payloads skip broken entries", func(t *testing.T) {
		good := base64.StdEncoding.EncodeToString(testPNG(t))
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.URL.Path, "/api/v1/models/"))
			assert.True(t, strings.HasSuffix(r.URL.Path, "/generate"))
			assert.Equal(t, "Bearer ms-key", r.Header.Get("Authorization"))

			var req imageGenerationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, ai.DefaultMSImageModel, req.Model)
			assert.Equal(t, "an explicit prompt", req.Input.Prompt)
			assert.Equal(t, 2, req.Input.N)
			assert.Equal(t, imageSize, req.Input.Size)

			resp := map[string]any{"images": []string{good, "%%%not-base64%%%"}}
			require.NoError(t, json.NewEncoder(rw).Encode(resp))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		paths, err := svc.GenerateImages(ctx, "note body", t.TempDir(), 2, "an explicit prompt")
		require.NoError(t, err)
		require.Len(t, paths, 1, "undecodable entry must not sink the batch")
		assert.FileExists(t, paths[0])
	})

	t.Run("url list payloads are downloaded", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/generate"):
				resp := map[string]any{"output": map[string]any{"images": []string{
					srv.URL + "/img/ok",
					srv.URL + "/img/bad",
				}}}
				require.NoError(t, json.NewEncoder(rw).Encode(resp))
			case r.URL.Path == "/img/ok":
				_, _ = rw.Write(testPNG(t))
			case r.URL.Path == "/img/bad":
				rw.WriteHeader(http.StatusNotFound)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		paths, err := svc.GenerateImages(ctx, "note body", t.TempDir(), 2, "prompt")
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.FileExists(t, paths[0])
	})

	t.Run("derived prompt carries the style suffix", func(t *testing.T) {
		var sawPrompt string
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			var req imageGenerationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			sawPrompt = req.Input.Prompt
			_, _ = rw.Write([]byte(`{}`))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		_, _ = svc.GenerateImages(ctx, "weekend slow living", t.TempDir(), 1, "")
		assert.Equal(t, buildImagePrompt("weekend slow living"), sawPrompt)
		assert.Contains(t, sawPrompt, "weekend slow living")
		assert.Contains(t, sawPrompt, "professional photography")
	})

	t.Run("reply without payload is an empty reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			_, _ = rw.Write([]byte(`{}`))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		paths, err := svc.GenerateImages(ctx, "note body", t.TempDir(), 1, "prompt")
		require.ErrorIs(t, err, ai.ErrEmptyReply)
		assert.Empty(t, paths)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusBadGateway)
			_, _ = rw.Write([]byte("upstream busy"))
		}))
		defer srv.Close()

		svc, err := newService(testConfig(srv.URL))
		require.NoError(t, err)

		_, err = svc.GenerateImages(ctx, "note body", t.TempDir(), 1, "prompt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("missing credential", func(t *testing.T) {
		cfg := testConfig(ai.DefaultModelScopeBaseURL)
		cfg.ModelScopeAPIKey = ""
		svc, err := newService(cfg)
		require.NoError(t, err)

		_, err = svc.GenerateImages(ctx, "note body", t.TempDir(), 1, "prompt")
		require.ErrorIs(t, err, ai.ErrNotConfigured)
	})
}

func TestThinkingRequested(t *testing.T) {
	t.Run("requires both the flag and a thinking model", func(t *testing.T) {
		cfg := testConfig(ai.DefaultModelScopeBaseURL,
			ai.WithMSEnableThinking(true),
			ai.WithMSTextModel("Qwen/Qwen3-235B-A22B-Thinking-2507"))
		svc, err := newService(cfg)
		require.NoError(t, err)
		assert.True(t, svc.thinkingRequested())
	})

	t.Run("flag alone is not enough", func(t *testing.T) {
		cfg := testConfig(ai.DefaultModelScopeBaseURL, ai.WithMSEnableThinking(true))
		svc, err := newService(cfg)
		require.NoError(t, err)
		assert.False(t, svc.thinkingRequested())
	})

	t.Run("model alone is not enough", func(t *testing.T) {
		cfg := testConfig(ai.DefaultModelScopeBaseURL,
			ai.WithMSTextModel("Qwen/Qwen3-235B-A22B-Thinking-2507"))
		svc, err := newService(cfg)
		require.NoError(t, err)
		assert.False(t, svc.thinkingRequested())
	})
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := testConfig(ai.DefaultModelScopeBaseURL)
	cfg.MSImageModel = ""
	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MSImageModel")
}
