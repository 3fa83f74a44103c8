package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"linkvault/internal/api"
	"linkvault/internal/config"
	"linkvault/internal/logging"
	"linkvault/internal/pipeline"
	"linkvault/internal/progress"
	"linkvault/internal/store"
	"linkvault/internal/testsupport"
)

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, postID int64) (pipeline.Outcome, error) {
	return pipeline.OutcomeCompleted, nil
}

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)

	broadcaster := progress.NewBroadcaster(logging.NewNop())
	scheduler := pipeline.NewScheduler(noopRunner{}, logging.NewNop())
	service := pipeline.NewService(st, scheduler, broadcaster)

	d, err := New(cfg, st, service, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, cfg
}

func startDaemon(t *testing.T, d *Daemon) string {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return "http://" + d.Addr()
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var value T
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func TestDaemonServesPostLifecycle(t *testing.T) {
	d, _ := newTestDaemon(t)
	base := startDaemon(t, d)

	resp := postJSON(t, base+"/api/posts", api.AddPostRequest{URL: "https://example.com/article"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", resp.StatusCode)
	}
	added := decodeBody[api.AddPostResponse](t, resp)
	if !added.Created {
		t.Error("created = false, want true")
	}

	// Same URL again reuses the post.
	resp = postJSON(t, base+"/api/posts", api.AddPostRequest{URL: "https://example.com/article"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-add status = %d, want 200", resp.StatusCode)
	}
	readded := decodeBody[api.AddPostResponse](t, resp)
	if readded.Created || readded.Post.ID != added.Post.ID {
		t.Errorf("re-add = %+v, want reuse of post %d", readded, added.Post.ID)
	}

	getResp, err := http.Get(fmt.Sprintf("%s/api/posts/%d", base, added.Post.ID))
	if err != nil {
		t.Fatalf("GET post: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", getResp.StatusCode)
	}
	detail := decodeBody[api.PostDetail](t, getResp)
	if detail.Post.URL != "https://example.com/article" {
		t.Errorf("post url = %q", detail.Post.URL)
	}

	retryResp := postJSON(t, fmt.Sprintf("%s/api/posts/%d/retry", base, added.Post.ID), api.RetryRequest{})
	if retryResp.StatusCode != http.StatusAccepted {
		t.Fatalf("retry status = %d, want 202", retryResp.StatusCode)
	}
	retryResp.Body.Close()

	queueResp, err := http.Get(base + "/api/queue")
	if err != nil {
		t.Fatalf("GET queue: %v", err)
	}
	queue := decodeBody[api.QueueResponse](t, queueResp)
	if len(queue.Posts) != 1 {
		t.Errorf("queue posts = %d, want 1", len(queue.Posts))
	}

	statusResp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	status := decodeBody[api.DaemonStatus](t, statusResp)
	if !status.Running {
		t.Error("status.Running = false, want true")
	}
	if status.LockFilePath == "" || status.DBPath == "" {
		t.Errorf("status paths missing: %+v", status)
	}
}

func TestDaemonRejectsUnknownPost(t *testing.T) {
	d, _ := newTestDaemon(t)
	base := startDaemon(t, d)

	resp, err := http.Get(base + "/api/posts/9999")
	if err != nil {
		t.Fatalf("GET post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDaemonRejectsInvalidBody(t *testing.T) {
	d, _ := newTestDaemon(t)
	base := startDaemon(t, d)

	resp, err := http.Post(base+"/api/posts", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDaemonRequiresBearerToken(t *testing.T) {
	d, _ := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "secret-token"
	})
	base := startDaemon(t, d)

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret-token")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", authed.StatusCode)
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	first, cfg := newTestDaemon(t)
	startDaemon(t, first)

	st := testsupport.MustOpenStore(t, cfg)
	broadcaster := progress.NewBroadcaster(logging.NewNop())
	scheduler := pipeline.NewScheduler(noopRunner{}, logging.NewNop())
	service := pipeline.NewService(st, scheduler, broadcaster)
	second, err := New(cfg, st, service, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon started despite the lock")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	d, _ := newTestDaemon(t)
	startDaemon(t, d)

	d.Stop()
	d.Stop()
}

func TestDaemonProcessesThroughRealPipeline(t *testing.T) {
	// End-to-end check: a stub runner still flips queue state through the
	// scheduler, so an added post must eventually leave the waiting queue.
	d, _ := newTestDaemon(t)
	base := startDaemon(t, d)

	resp := postJSON(t, base+"/api/posts", api.AddPostRequest{URL: "https://example.com/drained"})
	added := decodeBody[api.AddPostResponse](t, resp)
	if added.Post.Status != string(store.PostPending) {
		t.Fatalf("post status = %s, want pending", added.Post.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if d.pipeline.QueueLen() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("queue never drained")
}
