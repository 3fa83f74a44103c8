package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkvault/internal/services"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 8 * time.Second
	maxLabels             = 10
)

// Config captures the runtime settings required to talk to the analysis
// service.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client wraps the AI analysis HTTP API. Analysis failure is always
// non-fatal to callers: Analyze returns a zero Analysis alongside the error
// so the pipeline can log and move on.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryMaxAttempts = attempts
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// NewClient constructs an enrichment client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		sleeper:          time.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Analysis is the AI-derived metadata for one post.
type Analysis struct {
	Labels             []string `json:"labels,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	ContentType        string   `json:"contentType,omitempty"`
	SuggestedGroupName string   `json:"suggestedGroupName,omitempty"`
}

// IsZero reports whether the analysis carries no usable metadata.
func (a Analysis) IsZero() bool {
	return len(a.Labels) == 0 && a.Summary == "" && a.ContentType == "" && a.SuggestedGroupName == ""
}

type analyzeRequest struct {
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
	MediaCount int    `json:"mediaCount"`
}

// Analyze requests labels, a summary, and a group suggestion for extracted
// text. On any failure it returns a zero Analysis and the error; callers
// treat that as "no enrichment", never as a pipeline failure.
func (c *Client) Analyze(ctx context.Context, title, text string, mediaCount int) (Analysis, error) {
	if c.cfg.BaseURL == "" {
		return Analysis{}, services.Wrap(services.ErrConfiguration, "enrich", "request", "enrichment base URL not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return Analysis{}, services.Wrap(services.ErrValidation, "enrich", "request", "text must not be empty", nil)
	}

	body, err := json.Marshal(analyzeRequest{Title: title, Text: text, MediaCount: mediaCount})
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrValidation, "enrich", "encode request", "", err)
	}

	var lastErr error
	delay := c.retryBaseDelay
	for attempt := 0; attempt < c.retryMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Analysis{}, services.Wrap(services.ErrTimeout, "enrich", "retry", "", ctx.Err())
			default:
			}
			c.sleeper(delay)
			if next := delay * 2; next <= c.retryMaxDelay {
				delay = next
			}
		}

		analysis, retryable, err := c.analyzeOnce(ctx, body)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return Analysis{}, lastErr
}

func (c *Client) analyzeOnce(ctx context.Context, body []byte) (Analysis, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Analysis{}, false, services.Wrap(services.ErrValidation, "enrich", "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Analysis{}, true, services.Wrap(services.ErrExternalService, "enrich", "fetch", "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Analysis{}, true, services.Wrap(services.ErrExternalService, "enrich", "read response", "", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Analysis{}, true, services.Wrap(services.ErrTransient, "enrich", "fetch",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	default:
		return Analysis{}, false, services.Wrap(services.ErrExternalService, "enrich", "fetch",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var analysis Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return Analysis{}, false, services.Wrap(services.ErrExternalService, "enrich", "decode response", "", err)
	}
	if len(analysis.Labels) > maxLabels {
		analysis.Labels = analysis.Labels[:maxLabels]
	}
	analysis.SuggestedGroupName = strings.TrimSpace(analysis.SuggestedGroupName)
	return analysis, false, nil
}
