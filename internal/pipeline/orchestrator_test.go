package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"linkvault/internal/logging"
	"linkvault/internal/progress"
	"linkvault/internal/services"
	"linkvault/internal/services/crawler"
	"linkvault/internal/services/enrich"
	"linkvault/internal/store"
	"linkvault/internal/testsupport"
	"linkvault/internal/transfer"
)

type stubCrawler struct {
	mu    sync.Mutex
	page  *crawler.Page
	err   error
	calls int
}

func (s *stubCrawler) Crawl(ctx context.Context, url string) (*crawler.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

type stubEnricher struct {
	mu       sync.Mutex
	analysis enrich.Analysis
	err      error
	calls    int
}

func (s *stubEnricher) Analyze(ctx context.Context, title, text string, mediaCount int) (enrich.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return enrich.Analysis{}, s.err
	}
	return s.analysis, nil
}

type stubTransferrer struct {
	mu      sync.Mutex
	results map[string]transfer.Result
	calls   map[string]int
}

func newStubTransferrer() *stubTransferrer {
	return &stubTransferrer{
		results: make(map[string]transfer.Result),
		calls:   make(map[string]int),
	}
}

func (s *stubTransferrer) Transfer(ctx context.Context, req transfer.Request, onProgress transfer.ProgressFunc) transfer.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.SourceURL]++
	if result, ok := s.results[req.SourceURL]; ok {
		return result
	}
	return transfer.Result{
		Status:    transfer.StatusCompleted,
		LocalPath: fmt.Sprintf("/media/%d/%d", req.PostID, req.SortOrder),
		ByteSize:  1024,
	}
}

func (s *stubTransferrer) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

type eventRecorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *eventRecorder) Notify(event progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Event(nil), r.events...)
}

type fixture struct {
	store       *store.Store
	crawler     *stubCrawler
	enricher    *stubEnricher
	transferrer *stubTransferrer
	recorder    *eventRecorder
	orch        *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		store:       st,
		crawler:     &stubCrawler{page: &crawler.Page{Title: "Example", Text: "body text"}},
		enricher:    &stubEnricher{},
		transferrer: newStubTransferrer(),
		recorder:    &eventRecorder{},
	}
	broadcaster := progress.NewBroadcaster(logging.NewNop())
	broadcaster.Subscribe(f.recorder)
	f.orch = NewOrchestrator(st, f.crawler, f.enricher, f.transferrer, broadcaster, nil, logging.NewNop())
	return f
}

func (f *fixture) newPost(t *testing.T, url string) *store.Post {
	t.Helper()
	return testsupport.NewPost(t, f.store, url)
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)
	f.crawler.page = &crawler.Page{
		Title: "Example",
		Text:  "body text",
		Media: []crawler.MediaRef{
			{Type: store.MediaImage, URL: "https://cdn.example.com/a.jpg"},
			{Type: store.MediaVideo, URL: "https://cdn.example.com/b.mp4"},
		},
	}
	post := f.newPost(t, "https://example.com/post/1")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeCompleted)
	}

	updated, err := f.store.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if updated.Status != store.PostCompleted {
		t.Errorf("post status = %s, want %s", updated.Status, store.PostCompleted)
	}
	if updated.Title != "Example" {
		t.Errorf("post title = %q, want %q", updated.Title, "Example")
	}

	content, err := f.store.GetContent(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if content.Text != "body text" {
		t.Errorf("content text = %q", content.Text)
	}

	items, err := f.store.ListMediaByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("ListMediaByPost: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("media count = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Status != store.MediaCompleted {
			t.Errorf("media %d status = %s, want completed", item.SortOrder, item.Status)
		}
		if item.LocalPath == "" || item.ByteSize == 0 {
			t.Errorf("media %d missing local path or size", item.SortOrder)
		}
	}

	task, err := f.store.GetTask(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != store.TaskCompleted {
		t.Errorf("task status = %s, want completed", task.Status)
	}
	if task.Progress != 1.0 {
		t.Errorf("task progress = %v, want 1.0", task.Progress)
	}

	events := f.recorder.snapshot()
	if len(events) == 0 {
		t.Fatal("no progress events published")
	}
	last := 0.0
	for _, event := range events {
		if event.Fraction < last {
			t.Fatalf("progress went backwards: %v after %v", event.Fraction, last)
		}
		last = event.Fraction
	}
	if events[len(events)-1].Fraction != 1.0 {
		t.Errorf("final event fraction = %v, want 1.0", events[len(events)-1].Fraction)
	}
	if events[len(events)-1].Status != store.TaskCompleted {
		t.Errorf("final event status = %s, want completed", events[len(events)-1].Status)
	}
}

func TestRunCrawlFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.crawler.err = services.Wrap(services.ErrExternalService, "crawl", "request", "extraction failed", nil)
	post := f.newPost(t, "https://example.com/post/broken")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeFailed)
	}

	updated, err := f.store.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if updated.Status != store.PostFailed {
		t.Errorf("post status = %s, want failed", updated.Status)
	}

	task, err := f.store.GetTask(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != store.TaskFailed {
		t.Errorf("task status = %s, want failed", task.Status)
	}
	if task.ErrorMessage == "" {
		t.Error("task error message is empty")
	}

	items, err := f.store.ListMediaByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("ListMediaByPost: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("media count = %d, want 0", len(items))
	}

	events := f.recorder.snapshot()
	if len(events) != 1 {
		t.Fatalf("event count = %d, want 1", len(events))
	}
	if events[0].Fraction != 0 || events[0].Status != store.TaskFailed {
		t.Errorf("terminal event = %+v, want fraction 0 and failed status", events[0])
	}
}

func TestRunMediaFailureYieldsPartial(t *testing.T) {
	f := newFixture(t)
	f.crawler.page = &crawler.Page{
		Title: "Example",
		Text:  "body",
		Media: []crawler.MediaRef{
			{Type: store.MediaImage, URL: "https://cdn.example.com/ok.jpg"},
			{Type: store.MediaImage, URL: "https://cdn.example.com/bad.jpg"},
		},
	}
	f.transferrer.results["https://cdn.example.com/bad.jpg"] = transfer.Result{
		Status: transfer.StatusFailed,
		Err:    errors.New("status 404"),
	}
	post := f.newPost(t, "https://example.com/post/2")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomePartial {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomePartial)
	}

	summary, err := f.store.Summary(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Status != store.PostPartial {
		t.Errorf("post status = %s, want partial", summary.Status)
	}
	if summary.TaskStatus != store.TaskCompleted {
		t.Errorf("task status = %s, want completed", summary.TaskStatus)
	}
	if summary.Progress != 1.0 {
		t.Errorf("progress = %v, want 1.0", summary.Progress)
	}
	if summary.MediaCompleted != 1 || summary.MediaFailed != 1 {
		t.Errorf("media completed/failed = %d/%d, want 1/1", summary.MediaCompleted, summary.MediaFailed)
	}
}

func TestRunSkippedMediaStaysCompleted(t *testing.T) {
	f := newFixture(t)
	f.crawler.page = &crawler.Page{
		Title: "Video post",
		Text:  "body",
		Media: []crawler.MediaRef{
			{Type: store.MediaVideo, URL: "https://cdn.example.com/huge.mp4"},
		},
	}
	f.transferrer.results["https://cdn.example.com/huge.mp4"] = transfer.Result{
		Status: transfer.StatusSkipped,
	}
	post := f.newPost(t, "https://example.com/post/3")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeCompleted)
	}

	summary, err := f.store.Summary(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Status != store.PostCompleted {
		t.Errorf("post status = %s, want completed", summary.Status)
	}
	if summary.MediaSkipped != 1 {
		t.Errorf("media skipped = %d, want 1", summary.MediaSkipped)
	}
}

func TestRunZeroMediaJumpsToLateProgress(t *testing.T) {
	f := newFixture(t)
	post := f.newPost(t, "https://example.com/post/text-only")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeCompleted)
	}

	sawMediaDone := false
	for _, event := range f.recorder.snapshot() {
		if event.Fraction == progressMediaDone {
			sawMediaDone = true
		}
	}
	if !sawMediaDone {
		t.Errorf("no event at fraction %v for a post without media", progressMediaDone)
	}
}

func TestRunEnrichmentFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.enricher.err = services.Wrap(services.ErrExternalService, "analyze", "request", "service down", nil)
	post := f.newPost(t, "https://example.com/post/4")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeCompleted)
	}
	if f.enricher.calls != 1 {
		t.Errorf("enricher calls = %d, want 1", f.enricher.calls)
	}
}

func TestRunEnrichmentStoresMetadataAndGroups(t *testing.T) {
	f := newFixture(t)
	f.enricher.analysis = enrich.Analysis{
		Labels:             []string{"golang", "databases"},
		Summary:            "short summary",
		ContentType:        "article",
		SuggestedGroupName: "Tech Reads",
	}

	first := f.newPost(t, "https://example.com/post/5")
	if _, err := f.orch.Run(context.Background(), first.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	second := f.newPost(t, "https://example.com/post/6")
	if _, err := f.orch.Run(context.Background(), second.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	content, err := f.store.GetContent(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if len(content.Labels) != 2 || content.Summary != "short summary" || content.ContentType != "article" {
		t.Errorf("enrichment not persisted: %+v", content)
	}

	group, err := f.store.GetGroupByName(context.Background(), "Tech Reads")
	if err != nil {
		t.Fatalf("GetGroupByName: %v", err)
	}
	if group.PostCount != 2 {
		t.Errorf("group post count = %d, want 2", group.PostCount)
	}
}

func TestRunWithoutEnricherSkipsAnalyze(t *testing.T) {
	f := newFixture(t)
	f.orch.enricher = nil
	post := f.newPost(t, "https://example.com/post/7")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want %s", outcome, OutcomeCompleted)
	}
	if f.enricher.calls != 0 {
		t.Errorf("enricher calls = %d, want 0", f.enricher.calls)
	}
}

func TestRetrySkipsCompletedMedia(t *testing.T) {
	f := newFixture(t)
	const okURL = "https://cdn.example.com/ok.jpg"
	const flakyURL = "https://cdn.example.com/flaky.jpg"
	f.crawler.page = &crawler.Page{
		Title: "Example",
		Text:  "body",
		Media: []crawler.MediaRef{
			{Type: store.MediaImage, URL: okURL},
			{Type: store.MediaImage, URL: flakyURL},
		},
	}
	f.transferrer.results[flakyURL] = transfer.Result{
		Status: transfer.StatusFailed,
		Err:    errors.New("connection reset"),
	}
	post := f.newPost(t, "https://example.com/post/8")

	outcome, err := f.orch.Run(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if outcome != OutcomePartial {
		t.Fatalf("first outcome = %s, want %s", outcome, OutcomePartial)
	}

	// Second attempt succeeds for the flaky asset.
	f.transferrer.mu.Lock()
	delete(f.transferrer.results, flakyURL)
	f.transferrer.mu.Unlock()

	outcome, err = f.orch.Retry(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("retry outcome = %s, want %s", outcome, OutcomeCompleted)
	}

	if got := f.transferrer.callCount(okURL); got != 1 {
		t.Errorf("completed media transferred %d times, want 1", got)
	}
	if got := f.transferrer.callCount(flakyURL); got != 2 {
		t.Errorf("failed media transferred %d times, want 2", got)
	}

	task, err := f.store.GetTask(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", task.RetryCount)
	}
}

type stubNotifier struct {
	mu        sync.Mutex
	completed []string
	partial   []string
	failed    []string
}

func (s *stubNotifier) NotifyPostCompleted(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, title)
	return nil
}

func (s *stubNotifier) NotifyPostPartial(ctx context.Context, title string, failedMedia int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial = append(s.partial, title)
	return nil
}

func (s *stubNotifier) NotifyPostFailed(ctx context.Context, url, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, url)
	return nil
}

func (s *stubNotifier) TestNotification(ctx context.Context) error { return nil }

func TestRunNotifiesOnTerminalStates(t *testing.T) {
	f := newFixture(t)
	notifier := &stubNotifier{}
	f.orch.notifier = notifier

	post := f.newPost(t, "https://example.com/post/notify")
	if _, err := f.orch.Run(context.Background(), post.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != "Example" {
		t.Errorf("completed notifications = %v", notifier.completed)
	}

	f.crawler.err = services.Wrap(services.ErrExternalService, "crawl", "request", "down", nil)
	failing := f.newPost(t, "https://example.com/post/notify-fail")
	if _, err := f.orch.Run(context.Background(), failing.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != failing.URL {
		t.Errorf("failed notifications = %v", notifier.failed)
	}
}

func TestRunMissingPostReturnsError(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.Run(context.Background(), 9999); err == nil {
		t.Fatal("expected error for unknown post")
	}
}
