package config

const (
	defaultMediaDir                 = "~/.local/share/linkvault/media"
	defaultLogDir                   = "~/.local/share/linkvault/logs"
	defaultAPIBind                  = "127.0.0.1:7317"
	defaultCrawlerTimeoutSeconds    = 60
	defaultEnrichmentTimeoutSeconds = 30
	defaultTransferTimeoutSeconds   = 300
	defaultVideoSizeLimitMiB        = 100
	defaultMaxRetries               = 3
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultNtfyTimeoutSeconds       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir: defaultMediaDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Crawler: Crawler{
			TimeoutSeconds: defaultCrawlerTimeoutSeconds,
		},
		Enrichment: Enrichment{
			Enabled:        true,
			TimeoutSeconds: defaultEnrichmentTimeoutSeconds,
		},
		Transfer: Transfer{
			VideoSizeLimitMiB: defaultVideoSizeLimitMiB,
			TimeoutSeconds:    defaultTransferTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxRetries: defaultMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
