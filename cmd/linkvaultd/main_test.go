package main

import (
	"testing"

	"linkvault/internal/logging"
	"linkvault/internal/testsupport"
)

func TestBuildPipelineWithEnrichment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	service := buildPipeline(cfg, st, logging.NewNop())
	if service == nil {
		t.Fatal("buildPipeline returned nil")
	}
}

func TestBuildPipelineWithoutEnrichment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEnrichmentDisabled())
	st := testsupport.MustOpenStore(t, cfg)

	service := buildPipeline(cfg, st, logging.NewNop())
	if service == nil {
		t.Fatal("buildPipeline returned nil")
	}
}
