package main

import (
	"log/slog"

	"linkvault/internal/config"
	"linkvault/internal/notifications"
	"linkvault/internal/pipeline"
	"linkvault/internal/progress"
	"linkvault/internal/services/crawler"
	"linkvault/internal/services/enrich"
	"linkvault/internal/store"
	"linkvault/internal/transfer"
)

// buildPipeline assembles the component graph: service clients, transfer
// engine, broadcaster, orchestrator, and the scheduler-backed facade.
func buildPipeline(cfg *config.Config, st *store.Store, logger *slog.Logger) *pipeline.Service {
	crawlClient := crawler.NewClient(crawler.Config{
		BaseURL:        cfg.Crawler.BaseURL,
		TimeoutSeconds: cfg.Crawler.TimeoutSeconds,
	})

	var enricher pipeline.Enricher
	if cfg.Enrichment.Enabled {
		enricher = enrich.NewClient(enrich.Config{
			BaseURL:        cfg.Enrichment.BaseURL,
			APIKey:         cfg.Enrichment.APIKey,
			TimeoutSeconds: cfg.Enrichment.TimeoutSeconds,
		})
	}

	engine := transfer.NewEngine(transfer.Config{
		MediaDir:       cfg.Paths.MediaDir,
		VideoSizeLimit: cfg.VideoSizeLimitBytes(),
		TimeoutSeconds: cfg.Transfer.TimeoutSeconds,
	})

	broadcaster := progress.NewBroadcaster(logger)
	notifier := notifications.NewService(cfg)
	orchestrator := pipeline.NewOrchestrator(st, crawlClient, enricher, engine, broadcaster, notifier, logger)
	scheduler := pipeline.NewScheduler(orchestrator, logger)
	return pipeline.NewService(st, scheduler, broadcaster)
}
