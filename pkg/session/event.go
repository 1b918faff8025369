package session

import (
	"sync"
	"time"
)

// EventKind identifies the type of controller event.
type EventKind string

const (
	EventSessionStart EventKind = "session_start"
	EventOutput       EventKind = "output"
	EventProgress     EventKind = "progress"
	EventError        EventKind = "error"
	EventSessionEnd   EventKind = "session_end"
)

// Event is an immutable notification of controller activity. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text,omitempty"`     // Whole buffer, for EventOutput.
	Consumed  int       `json:"consumed,omitempty"` // For EventProgress.
	Total     int       `json:"total,omitempty"`    // For EventProgress.
	Label     string    `json:"label,omitempty"`    // For EventProgress.
	Error     string    `json:"error,omitempty"`    // For EventError.
	State     string    `json:"state,omitempty"`    // Terminal state, for EventSessionEnd.
}

// Subscription is one observer's view of the bus: the TUI relay or a test.
// C is closed by Unsubscribe.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus mirrors controller activity to observers that are not the Sink.
// It is safe for concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe starts delivering events published from now on. bufSize bounds
// how far a subscriber may fall behind before it starts missing events.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe stops delivery to sub and closes sub.C. Repeated calls are
// no-ops.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish is called from a session's consumption loop while it holds the
// session lock, so it never blocks: a subscriber with a full buffer misses
// e. An output event carries the whole buffer, so the next one a slow
// relay client receives still shows the complete text.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
