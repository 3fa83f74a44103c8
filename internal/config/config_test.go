package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"linkvault/internal/config"
)

func TestLoadDefaultsExpandPathsAndApplyEnvOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LINKVAULT_CRAWLER_URL", "http://crawler.test")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantMedia := filepath.Join(tempHome, ".local", "share", "linkvault", "media")
	if cfg.Paths.MediaDir != wantMedia {
		t.Fatalf("unexpected media dir: got %q want %q", cfg.Paths.MediaDir, wantMedia)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7317" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Crawler.BaseURL != "http://crawler.test" {
		t.Fatalf("expected crawler URL from env, got %q", cfg.Crawler.BaseURL)
	}
	if cfg.Transfer.VideoSizeLimitMiB != 100 {
		t.Fatalf("unexpected video size limit: %d", cfg.Transfer.VideoSizeLimitMiB)
	}
	if got := cfg.VideoSizeLimitBytes(); got != 100*1024*1024 {
		t.Fatalf("unexpected ceiling in bytes: %d", got)
	}
}

func TestLoadParsesFileAndTrimsServiceURLs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
media_dir = "` + filepath.Join(dir, "media") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[crawler]
base_url = "http://crawler.test/"

[enrichment]
enabled = false

[transfer]
video_size_limit_mib = 50
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Crawler.BaseURL != "http://crawler.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Crawler.BaseURL)
	}
	if cfg.Enrichment.Enabled {
		t.Fatal("expected enrichment disabled")
	}
	if cfg.Transfer.VideoSizeLimitMiB != 50 {
		t.Fatalf("unexpected video size limit: %d", cfg.Transfer.VideoSizeLimitMiB)
	}
	if cfg.Pipeline.MaxRetries != 3 {
		t.Fatalf("expected default max retries, got %d", cfg.Pipeline.MaxRetries)
	}
}

func TestValidateRejectsMissingCrawlerURL(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MediaDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing crawler URL")
	}
	if !strings.Contains(err.Error(), "crawler.base_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositiveCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.Crawler.BaseURL = "http://crawler.test"
	cfg.Transfer.VideoSizeLimitMiB = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero ceiling")
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Transfer.VideoSizeLimitMiB != 100 {
		t.Fatalf("sample ceiling mismatch: %d", cfg.Transfer.VideoSizeLimitMiB)
	}

	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected WriteSample to refuse overwriting")
	}
}
