package main

import (
	"strings"
	"sync"

	"linkvault/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiBaseURL resolves the daemon address: the --api flag wins, then the
// configured bind address.
func (c *commandContext) apiBaseURL() string {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return normalizeBaseURL(*c.apiFlag)
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return "http://127.0.0.1:7317"
	}
	return normalizeBaseURL(cfg.Paths.APIBind)
}

func (c *commandContext) apiToken() string {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Paths.APIToken)
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(c.apiBaseURL(), c.apiToken())
}

func normalizeBaseURL(value string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(value), "/")
	if trimmed == "" {
		return "http://127.0.0.1:7317"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "http://" + trimmed
	}
	return trimmed
}
