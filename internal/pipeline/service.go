package pipeline

import (
	"context"
	"fmt"

	"linkvault/internal/progress"
	"linkvault/internal/store"
)

// Service is the caller-facing pipeline API the daemon exposes over HTTP.
// It validates requests against the store before touching the queue.
type Service struct {
	gateway     Gateway
	scheduler   *Scheduler
	broadcaster *progress.Broadcaster
}

// NewService wires the facade.
func NewService(gateway Gateway, scheduler *Scheduler, broadcaster *progress.Broadcaster) *Service {
	return &Service{
		gateway:     gateway,
		scheduler:   scheduler,
		broadcaster: broadcaster,
	}
}

// Start begins queue processing.
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// Stop halts queue processing and waits for the in-flight run to return.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// Enqueue schedules a post for processing. The task record is created up
// front so the post is visible as queued before the run starts.
func (s *Service) Enqueue(ctx context.Context, postID int64, priority int) error {
	if _, err := s.gateway.GetPost(ctx, postID); err != nil {
		return fmt.Errorf("enqueue post %d: %w", postID, err)
	}
	if _, err := s.gateway.EnsureTask(ctx, postID); err != nil {
		return fmt.Errorf("enqueue post %d: %w", postID, err)
	}
	s.scheduler.Enqueue(postID, priority)
	return nil
}

// Retry resets the task record and schedules the post again. Completed media
// from the earlier run is kept and not transferred twice.
func (s *Service) Retry(ctx context.Context, postID int64, priority int) error {
	if _, err := s.gateway.GetPost(ctx, postID); err != nil {
		return fmt.Errorf("retry post %d: %w", postID, err)
	}
	if _, err := s.gateway.ResetTaskForRetry(ctx, postID); err != nil {
		return fmt.Errorf("retry post %d: %w", postID, err)
	}
	s.scheduler.Enqueue(postID, priority)
	return nil
}

// Status reports the aggregate state of one post.
func (s *Service) Status(ctx context.Context, postID int64) (*store.PostSummary, error) {
	return s.gateway.Summary(ctx, postID)
}

// QueueLen reports how many posts are waiting to be processed.
func (s *Service) QueueLen() int {
	return s.scheduler.Len()
}

// SubscribeProgress registers a listener for progress events. The returned
// function unsubscribes it.
func (s *Service) SubscribeProgress(listener progress.Listener) func() {
	return s.broadcaster.Subscribe(listener)
}
