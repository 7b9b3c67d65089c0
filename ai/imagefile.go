package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Image backends return JPEG as well as PNG.
	_ "image/jpeg"
)

// DownloadTimeout bounds a single remote image fetch.
const DownloadTimeout = 30 * time.Second

// ImageWriter persists generated images as PNG files with a provider-prefixed,
// timestamped name. One writer serves one provider. Construct with
// NewImageWriter; the zero value has no usable HTTP client.
type ImageWriter struct {
	prefix string
	client *http.Client
	logger *slog.Logger
}

// NewImageWriter creates a writer whose files carry the given provider prefix.
func NewImageWriter(prefix string) *ImageWriter {
	return &ImageWriter{
		prefix: prefix,
		client: &http.Client{Timeout: DownloadTimeout},
		logger: slog.Default().With("component", "image-writer"),
	}
}

// SaveBytes validates one encoded image (PNG or JPEG input) and writes it as
// a PNG file under dir, named {prefix}_image_{timestamp}_{index+1}.png.
// The caller is expected to have created dir. Returns the absolute path of
// the written file.
func (w *ImageWriter) SaveBytes(dir string, index int, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image %d: %w", index+1, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image %d: %w", index+1, err)
	}

	name := fmt.Sprintf("%s_image_%s_%d.png", w.prefix, time.Now().Format("20060102_150405"), index+1)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	w.logger.Debug("image saved", "path", abs)
	return abs, nil
}

// SaveBase64 decodes a base64 payload and saves it via SaveBytes.
func (w *ImageWriter) SaveBase64(dir string, index int, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("decode base64 image %d: %w", index+1, err)
	}
	return w.SaveBytes(dir, index, data)
}

// Download fetches a remote image and saves it via SaveBytes. The client
// timeout bounds the whole fetch. A non-200 status or an undecodable body is
// an error for this index only; sibling images in a batch are unaffected.
func (w *ImageWriter) Download(ctx context.Context, url, dir string, index int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for image %d: %w", index+1, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image %d: %w", index+1, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image %d: unexpected status %d", index+1, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image %d: %w", index+1, err)
	}
	return w.SaveBytes(dir, index, data)
}
