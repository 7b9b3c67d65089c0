package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/rednote/core"
)

// requestTimeout bounds one publish call. Publishing drives a real browser
// session on the collaborator side, so the budget is generous.
const requestTimeout = 180 * time.Second

const (
	mcpPath    = "/mcp"
	toolName   = "publish_content"
	methodCall = "tools/call"
)

// ErrNoImages indicates a publish attempt without any saved images.
// The platform rejects image-less notes, so the client refuses locally.
var ErrNoImages = errors.New("at least one image is required to publish")

// RPCError is the error member of a JSON-RPC response envelope.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type noteArguments struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

type rpcParams struct {
	Name      string        `json:"name"`
	Arguments noteArguments `json:"arguments"`
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Client publishes notes through one xiaohongshu-mcp instance.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout overrides the publish call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// NewClient creates a publish client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  slog.Default().With("component", "publish-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish sends the note and its images to the publish tool. Image paths are
// made absolute and verified to exist before anything goes on the wire; the
// note title is clamped to the platform limit. The note's tags are archived
// with the run but are not part of the tool's argument schema.
//
// The call blocks until the collaborator answers, up to the client timeout.
func (c *Client) Publish(ctx context.Context, note *core.Note, imagePaths []string) error {
	if len(imagePaths) == 0 {
		return ErrNoImages
	}

	images := make([]string, 0, len(imagePaths))
	for _, p := range imagePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve image path %s: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("image %s: %w", abs, err)
		}
		images = append(images, abs)
	}

	title := core.TruncateRunes(note.Title, core.TitleRuneLimit)
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodCall,
		Params: rpcParams{
			Name: toolName,
			Arguments: noteArguments{
				Title:   title,
				Content: note.Content,
				Images:  images,
			},
		},
	}

	c.logger.Info("publishing note",
		"title", title,
		"content_chars", len(note.Content),
		"images", len(images))

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal publish request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mcpPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build publish request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call publish service: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read publish response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return fmt.Errorf("publish service returned status %d: %s",
			httpResp.StatusCode, core.TruncateRunes(string(data), 500))
	}

	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode publish response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("publish rejected: %w", resp.Error)
	}
	if resp.Result == nil {
		return fmt.Errorf("publish response carries neither result nor error: %s",
			core.TruncateRunes(string(data), 500))
	}

	c.logger.Info("note published", "title", title)
	return nil
}
