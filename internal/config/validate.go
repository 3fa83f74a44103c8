package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCrawler(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		return errors.New("paths.media_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateCrawler() error {
	if c.Crawler.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/linkvault/config.toml"
		}
		return fmt.Errorf("crawler.base_url is required. Set LINKVAULT_CRAWLER_URL or edit %s (create with 'linkvault config init')", defaultPath)
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return errors.New("crawler.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if !c.Enrichment.Enabled {
		return nil
	}
	if c.Enrichment.BaseURL == "" {
		return errors.New("enrichment.base_url must be set when enrichment.enabled is true")
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		return errors.New("enrichment.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if c.Transfer.VideoSizeLimitMiB <= 0 {
		return errors.New("transfer.video_size_limit_mib must be positive")
	}
	if c.Transfer.TimeoutSeconds <= 0 {
		return errors.New("transfer.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("pipeline.max_retries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
