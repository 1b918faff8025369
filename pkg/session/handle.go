package session

import (
	"context"
	"sync"

	"github.com/germanamz/rulm/pkg/completion"
)

// Handle is the cancellation token and result of one session.
type Handle struct {
	id     string
	model  string
	cancel context.CancelFunc
	done   chan struct{}

	// mu guards everything below and is held by the consumption loop while
	// it mutates the buffer or emits.
	mu        sync.Mutex
	state     State
	cancelled bool
	stream    completion.Stream
	result    Result
}

func newHandle(id, model string, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:     id,
		model:  model,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateStreaming,
	}
}

// ID returns the session identifier.
func (h *Handle) ID() string { return h.id }

// Model returns the model the session was submitted with.
func (h *Handle) Model() string { return h.model }

// State returns the current state of the session.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Done is closed once the consumption loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the session ends and returns its result.
func (h *Handle) Wait() Result {
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.result
}

// Cancel stops the session. Once it returns, no further Output, Progress or
// Failed emission happens for this session. Cancelling a finished session is
// a no-op.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.cancelled || h.state.Terminal() {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.state = StateCancelled
	stream := h.stream
	h.mu.Unlock()

	h.cancel()
	if stream != nil {
		_ = stream.Close()
	}
}

// attach records the open stream so Cancel can abandon it. It reports false
// when the session was cancelled before the stream opened.
func (h *Handle) attach(s completion.Stream) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelled {
		return false
	}
	h.stream = s

	return true
}
