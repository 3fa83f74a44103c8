package progress

import (
	"log/slog"
	"sync"

	"linkvault/internal/logging"
	"linkvault/internal/store"
)

// Event is one progress notification for a post.
type Event struct {
	PostID   int64
	Fraction float64
	Status   store.TaskStatus
}

// Listener receives progress events. Delivery is synchronous on the
// publisher's goroutine; listeners that need to do real work should hand the
// event off to their own channel.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(Event)

func (f ListenerFunc) Notify(event Event) { f(event) }

// Broadcaster fans progress events out to subscribed listeners. Subscribing
// and unsubscribing are safe concurrently with Publish; events are not
// buffered or replayed, so late subscribers miss earlier notifications.
type Broadcaster struct {
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int64
	listeners map[int64]Listener
}

// NewBroadcaster constructs an empty registry. A nil logger is replaced with
// a no-op.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:    logging.NewComponentLogger(logger, "progress"),
		listeners: make(map[int64]Listener),
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Broadcaster) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers an event to every current listener. A panicking listener
// is logged and skipped; it never blocks delivery to the others or reaches
// the publisher.
func (b *Broadcaster) Publish(postID int64, fraction float64, status store.TaskStatus) {
	b.mu.Lock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, listener := range b.listeners {
		snapshot = append(snapshot, listener)
	}
	b.mu.Unlock()

	event := Event{PostID: postID, Fraction: fraction, Status: status}
	for _, listener := range snapshot {
		b.deliver(listener, event)
	}
}

func (b *Broadcaster) deliver(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("progress listener panicked",
				logging.Int64(logging.FieldPostID, event.PostID),
				logging.Any("panic", r),
			)
		}
	}()
	listener.Notify(event)
}

// Len reports the current number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
