package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkvault/internal/services"
	"linkvault/internal/store"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to the extraction
// service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the content extraction HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a crawler client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// MediaRef is one media reference discovered on the page, in source order.
type MediaRef struct {
	Type     store.MediaType `json:"type"`
	URL      string          `json:"url"`
	FileSize int64           `json:"fileSize,omitempty"`
}

// Page is the structured extraction result for one URL.
type Page struct {
	Title        string     `json:"title"`
	Text         string     `json:"text"`
	AuthorName   string     `json:"authorName,omitempty"`
	AuthorID     string     `json:"authorId,omitempty"`
	OriginalDate string     `json:"originalDate,omitempty"`
	ViewCount    int64      `json:"viewCount,omitempty"`
	LikeCount    int64      `json:"likeCount,omitempty"`
	Media        []MediaRef `json:"media,omitempty"`
}

type crawlRequest struct {
	URL string `json:"url"`
}

type crawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Page
}

// Crawl extracts a page. Every failure mode — transport, timeout, non-2xx,
// malformed payload, remote-reported error — comes back as one classified
// error; callers do not need to distinguish causes.
func (c *Client) Crawl(ctx context.Context, url string) (*Page, error) {
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "crawl", "request", "crawler base URL not configured", nil)
	}
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrValidation, "crawl", "request", "url must not be empty", nil)
	}

	body, err := json.Marshal(crawlRequest{URL: url})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "crawl", "encode request", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "crawl", "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "crawl", "fetch", "extraction timed out", err)
		}
		return nil, services.Wrap(services.ErrExternalService, "crawl", "fetch", "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "crawl", "read response", "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrExternalService, "crawl", "fetch",
			fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(payload)), nil)
	}

	var decoded crawlResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "crawl", "decode response", snippet(payload), err)
	}
	if !decoded.Success {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "extraction failed"
		}
		return nil, services.Wrap(services.ErrExternalService, "crawl", "extract", message, nil)
	}

	page := decoded.Page
	page.Media = validMedia(page.Media)
	return &page, nil
}

// validMedia drops references the pipeline cannot act on, preserving source
// order for the rest.
func validMedia(refs []MediaRef) []MediaRef {
	result := make([]MediaRef, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref.URL) == "" {
			continue
		}
		switch ref.Type {
		case store.MediaImage, store.MediaVideo:
			result = append(result, ref)
		}
	}
	return result
}

func snippet(payload []byte) string {
	const limit = 200
	trimmed := strings.TrimSpace(string(payload))
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}
