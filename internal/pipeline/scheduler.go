package pipeline

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"

	"linkvault/internal/logging"
)

// Runner executes the pipeline for one post. Implemented by Orchestrator.
type Runner interface {
	Run(ctx context.Context, postID int64) (Outcome, error)
}

type queueItem struct {
	postID   int64
	priority int
	seq      uint64
}

// queueHeap orders by descending priority, then by enqueue order within the
// same priority.
type queueHeap []*queueItem

func (h queueHeap) Len() int { return len(h) }

func (h queueHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h queueHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *queueHeap) Push(x any) { *h = append(*h, x.(*queueItem)) }

func (h *queueHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler owns the priority queue and the single drain goroutine. Posts are
// processed strictly one at a time; enqueueing a post id that is already
// waiting is a no-op.
type Scheduler struct {
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	items   queueHeap
	waiting map[int64]struct{}
	seq     uint64
	running bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler around the given runner.
func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		waiting: make(map[int64]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the drain goroutine. It returns an error if the scheduler is
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.drain(runCtx, s.done)
	return nil
}

// Stop cancels the drain goroutine and waits for the in-flight run, if any,
// to observe the cancellation and return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// Enqueue adds a post to the queue. It returns false when the post is already
// waiting. Higher priority values are drained first; equal priorities keep
// enqueue order.
func (s *Scheduler) Enqueue(postID int64, priority int) bool {
	s.mu.Lock()
	if _, exists := s.waiting[postID]; exists {
		s.mu.Unlock()
		return false
	}
	s.seq++
	heap.Push(&s.items, &queueItem{postID: postID, priority: priority, seq: s.seq})
	s.waiting[postID] = struct{}{}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Len reports how many posts are waiting, excluding the one in flight.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Len()
}

func (s *Scheduler) dequeue() (*queueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items.Len() == 0 {
		return nil, false
	}
	item := heap.Pop(&s.items).(*queueItem)
	delete(s.waiting, item.postID)
	return item, true
}

func (s *Scheduler) drain(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		item, ok := s.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		if ctx.Err() != nil {
			return
		}

		outcome, err := s.runner.Run(ctx, item.postID)
		if err != nil {
			s.logger.Error("pipeline run errored",
				logging.Int64(logging.FieldPostID, item.postID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("pipeline run finished",
			logging.Int64(logging.FieldPostID, item.postID),
			logging.String("outcome", string(outcome)),
		)
	}
}
