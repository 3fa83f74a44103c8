package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	MediaDir string `toml:"media_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Crawler contains configuration for the remote content extraction service.
type Crawler struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Enrichment contains configuration for the AI analysis service.
type Enrichment struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transfer contains configuration for media downloads.
type Transfer struct {
	VideoSizeLimitMiB int `toml:"video_size_limit_mib"`
	TimeoutSeconds    int `toml:"timeout_seconds"`
}

// Pipeline contains configuration for run scheduling and retries.
type Pipeline struct {
	MaxRetries int `toml:"max_retries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for push notifications. An empty topic
// disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for linkvault.
//
// Configuration sections by subsystem:
//   - Paths: media/log directories and API bind address
//   - Crawler: content extraction service endpoint
//   - Enrichment: AI analysis service endpoint
//   - Transfer: media download limits and timeouts
//   - Pipeline: retry policy
//   - Logging: log format and level
//   - Notifications: optional ntfy push notifications
type Config struct {
	Paths         Paths         `toml:"paths"`
	Crawler       Crawler       `toml:"crawler"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Transfer      Transfer      `toml:"transfer"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/linkvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. Environment overrides
// (optionally sourced from a .env file) are applied after the file is parsed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// applyEnvOverrides layers environment variables over the parsed file so
// secrets can stay out of config files. A .env in the working directory is
// honored when present.
func (c *Config) applyEnvOverrides() {
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv("LINKVAULT_CRAWLER_URL")); v != "" {
		c.Crawler.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKVAULT_ENRICHMENT_URL")); v != "" {
		c.Enrichment.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKVAULT_ENRICHMENT_API_KEY")); v != "" {
		c.Enrichment.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKVAULT_API_TOKEN")); v != "" {
		c.Paths.APIToken = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKVAULT_VIDEO_SIZE_LIMIT_MIB")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			c.Transfer.VideoSizeLimitMiB = limit
		}
	}
}

func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.MediaDir)
	if err != nil {
		return fmt.Errorf("expand media_dir: %w", err)
	}
	c.Paths.MediaDir = expanded

	expanded, err = expandPath(c.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("expand log_dir: %w", err)
	}
	c.Paths.LogDir = expanded

	c.Crawler.BaseURL = strings.TrimRight(strings.TrimSpace(c.Crawler.BaseURL), "/")
	c.Enrichment.BaseURL = strings.TrimRight(strings.TrimSpace(c.Enrichment.BaseURL), "/")
	return nil
}

// EnsureDirectories creates the media and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.MediaDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// VideoSizeLimitBytes returns the configured video ceiling in bytes.
func (c *Config) VideoSizeLimitBytes() int64 {
	return int64(c.Transfer.VideoSizeLimitMiB) * 1024 * 1024
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
