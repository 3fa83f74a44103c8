package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkvault/internal/config"
)

const userAgent = "linkvault/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyPostCompleted(ctx context.Context, title string) error
	NotifyPostPartial(ctx context.Context, title string, failedMedia int) error
	NotifyPostFailed(ctx context.Context, url, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPostCompleted(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled post"
	}
	return n.send(ctx, payload{
		title:   "Linkvault - Saved",
		message: fmt.Sprintf("Content synced: %s", title),
		tags:    []string{"linkvault", "post", "completed"},
	})
}

func (n *ntfyService) NotifyPostPartial(ctx context.Context, title string, failedMedia int) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled post"
	}
	return n.send(ctx, payload{
		title:   "Linkvault - Saved With Errors",
		message: fmt.Sprintf("Content synced with %d failed media: %s", failedMedia, title),
		tags:    []string{"linkvault", "post", "partial"},
	})
}

func (n *ntfyService) NotifyPostFailed(ctx context.Context, url, reason string) error {
	var builder strings.Builder
	builder.WriteString("Sync failed: ")
	builder.WriteString(strings.TrimSpace(url))
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString("\n")
		builder.WriteString(reason)
	}
	return n.send(ctx, payload{
		title:    "Linkvault - Failed",
		message:  builder.String(),
		tags:     []string{"linkvault", "post", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Linkvault - Test",
		message:  "Notification system test",
		tags:     []string{"linkvault", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPostCompleted(context.Context, string) error      { return nil }
func (noopService) NotifyPostPartial(context.Context, string, int) error   { return nil }
func (noopService) NotifyPostFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
