package testsupport

import (
	"path/filepath"
	"testing"

	"linkvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Crawler.BaseURL = "http://127.0.0.1:0"
	cfg.Enrichment.BaseURL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCrawlerURL points the crawler client at a test server.
func WithCrawlerURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Crawler.BaseURL = url
	}
}

// WithEnrichmentURL points the enrichment client at a test server.
func WithEnrichmentURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enrichment.BaseURL = url
	}
}

// WithEnrichmentDisabled turns the enrichment stage off.
func WithEnrichmentDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enrichment.Enabled = false
	}
}

// WithVideoSizeLimitMiB overrides the video transfer ceiling.
func WithVideoSizeLimitMiB(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transfer.VideoSizeLimitMiB = limit
	}
}
