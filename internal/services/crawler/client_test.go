package crawler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"linkvault/internal/services"
	"linkvault/internal/services/crawler"
	"linkvault/internal/store"
)

func TestCrawlReturnsStructuredPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["url"] != "https://example.com/article" {
			t.Errorf("unexpected url %q", req["url"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"title":      "Example Article",
			"text":       "body text",
			"authorName": "jane",
			"viewCount":  321,
			"media": []map[string]any{
				{"type": "image", "url": "https://cdn.example.com/a.jpg"},
				{"type": "video", "url": "https://cdn.example.com/b.mp4", "fileSize": 1024},
				{"type": "gif", "url": "https://cdn.example.com/ignored.gif"},
				{"type": "image", "url": ""},
			},
		})
	}))
	defer server.Close()

	client := crawler.NewClient(crawler.Config{BaseURL: server.URL})
	page, err := client.Crawl(context.Background(), "https://example.com/article")
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}
	if page.Title != "Example Article" || page.AuthorName != "jane" || page.ViewCount != 321 {
		t.Fatalf("unexpected page: %#v", page)
	}
	if len(page.Media) != 2 {
		t.Fatalf("expected 2 usable media refs, got %d", len(page.Media))
	}
	if page.Media[0].Type != store.MediaImage || page.Media[1].FileSize != 1024 {
		t.Fatalf("unexpected media: %#v", page.Media)
	}
}

func TestCrawlClassifiesRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "timeout loading page",
		})
	}))
	defer server.Close()

	client := crawler.NewClient(crawler.Config{BaseURL: server.URL})
	_, err := client.Crawl(context.Background(), "https://example.com/slow")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "timeout loading page") {
		t.Fatalf("expected remote message preserved, got %v", err)
	}
}

func TestCrawlClassifiesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	client := crawler.NewClient(crawler.Config{BaseURL: server.URL})
	_, err := client.Crawl(context.Background(), "https://example.com/blocked")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "http 403") {
		t.Fatalf("expected status in message, got %v", err)
	}
}

func TestCrawlClassifiesMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := crawler.NewClient(crawler.Config{BaseURL: server.URL})
	_, err := client.Crawl(context.Background(), "https://example.com/article")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
}

func TestCrawlRejectsEmptyURL(t *testing.T) {
	client := crawler.NewClient(crawler.Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Crawl(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
