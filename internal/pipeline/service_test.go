package pipeline

import (
	"context"
	"testing"
	"time"

	"linkvault/internal/logging"
	"linkvault/internal/progress"
	"linkvault/internal/services/crawler"
	"linkvault/internal/store"
	"linkvault/internal/testsupport"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	broadcaster := progress.NewBroadcaster(logging.NewNop())
	orch := NewOrchestrator(
		st,
		&stubCrawler{page: &crawler.Page{Title: "Example", Text: "body"}},
		nil,
		newStubTransferrer(),
		broadcaster,
		nil,
		logging.NewNop(),
	)
	scheduler := NewScheduler(orch, logging.NewNop())
	return NewService(st, scheduler, broadcaster), st
}

func TestServiceEnqueueUnknownPost(t *testing.T) {
	service, _ := newService(t)
	if err := service.Enqueue(context.Background(), 12345, 0); err == nil {
		t.Fatal("expected error for unknown post")
	}
}

func TestServiceProcessesEnqueuedPost(t *testing.T) {
	service, st := newService(t)
	post := testsupport.NewPost(t, st, "https://example.com/article")

	terminal := make(chan progress.Event, 1)
	unsubscribe := service.SubscribeProgress(progress.ListenerFunc(func(event progress.Event) {
		if event.Status.IsTerminal() {
			select {
			case terminal <- event:
			default:
			}
		}
	}))
	defer unsubscribe()

	if err := service.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer service.Stop()

	if err := service.Enqueue(context.Background(), post.ID, 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case event := <-terminal:
		if event.PostID != post.ID || event.Status != store.TaskCompleted {
			t.Fatalf("terminal event = %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal progress event")
	}

	summary, err := service.Status(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if summary.Status != store.PostCompleted {
		t.Errorf("post status = %s, want completed", summary.Status)
	}
	if summary.Progress != 1.0 {
		t.Errorf("progress = %v, want 1.0", summary.Progress)
	}
}

func TestServiceRetryUnknownPost(t *testing.T) {
	service, _ := newService(t)
	if err := service.Retry(context.Background(), 9999, 0); err == nil {
		t.Fatal("expected error retrying an unknown post")
	}
}
