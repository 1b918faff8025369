package msgs

import (
	"github.com/germanamz/rulm/pkg/session"
)

// --- Bridge → TUI messages ---

// OutputMsg carries the whole buffer after a token was appended.
type OutputMsg struct {
	SessionID string
	Buffer    string
}

// ProgressMsg reports prompt processing.
type ProgressMsg struct {
	SessionID string
	Consumed  int
	Total     int
	Label     string
}

// FailedMsg carries the user-visible message of a failed session.
type FailedMsg struct {
	SessionID string
	Message   string
}

// FinishedMsg is the last message of a session.
type FinishedMsg struct {
	Result session.Result
}

// --- Internal messages ---

// SubmittedMsg is returned by the tea.Cmd that calls Controller.Submit.
type SubmittedMsg struct {
	Handle *session.Handle
	Err    error
}

// CopiedMsg is returned after writing to the clipboard.
type CopiedMsg struct {
	Err error
}
