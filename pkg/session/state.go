package session

import (
	"time"

	"github.com/germanamz/rulm/pkg/usage"
)

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Result describes a finished session. Err is set only for StateFailed;
// cancellation is not an error.
type Result struct {
	SessionID string
	Model     string
	State     State
	Output    string // Final buffer: prompt, separator, generated text.
	Generated string // Generated text only.
	Err       error
	Tokens    usage.TokenCount
	Duration  time.Duration
}
