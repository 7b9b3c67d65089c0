package ai

import (
	"context"

	"github.com/poiesic/rednote/core"
)

// Service generates social-media note content through one AI vendor backend.
// A service is used single-threaded within one workflow run; implementations
// block the caller for the full duration of each operation.
type Service interface {
	// Name returns the provider name ("google", "modelscope", "dashscope").
	Name() string

	// IsAvailable reports whether the service is configured and reachable.
	// It returns true only if all required credentials are present; variants
	// that probe connectivity perform at most one outbound call. Availability
	// is computed on demand and never cached. Internal faults are logged and
	// reported as unavailable, never panicked.
	IsAvailable(ctx context.Context) bool

	// GenerateTextContent produces a note (title, content, tags) for the topic.
	// The reply is normalized before return: the title is truncated to
	// core.TitleRuneLimit runes and malformed replies fall back to heuristic
	// extraction. On network or API failure it returns (nil, err) — never a
	// partially populated note.
	GenerateTextContent(ctx context.Context, topic string) (*core.Note, error)

	// GenerateImages generates numImages images for the content and persists
	// each as a PNG inside saveDir, returning the absolute paths of the saved
	// subset. When imagePrompt is empty the adapter derives one from content.
	// Per-image failures are logged and skipped (partial success is not an
	// error); only total backend failure returns (nil, err).
	GenerateImages(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error)

	// Close releases resources held by the service.
	// After Close is called, the service should not be used.
	Close() error
}
