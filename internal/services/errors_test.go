package services_test

import (
	"errors"
	"testing"

	"linkvault/internal/services"
)

func TestWrapTagsWithMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrExternalService, "crawl", "fetch", "request failed", base)

	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestMessageStripsSentinelPrefix(t *testing.T) {
	err := services.Wrap(services.ErrExternalService, "crawl", "fetch", "timeout", nil)
	if got := services.Message(err); got != "crawl: fetch: timeout" {
		t.Fatalf("unexpected message: %q", got)
	}
	if services.Message(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}
