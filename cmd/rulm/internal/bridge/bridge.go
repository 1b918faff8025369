// Package bridge turns session emissions into bubbletea messages.
package bridge

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/rulm/cmd/rulm/internal/msgs"
	"github.com/germanamz/rulm/pkg/session"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink implements session.Sink by forwarding every emission to a Sender. It
// never touches model state directly. Emissions before Attach are dropped.
//
// Send blocks until the program's event loop takes the message, and the
// session loop holds its lock while calling the Sink, so the TUI must call
// Submit and Cancel from a tea.Cmd, never from Update.
type Sink struct {
	sender atomic.Pointer[Sender]
}

var _ session.Sink = (*Sink)(nil)

// NewSink creates an unattached Sink.
func NewSink() *Sink { return &Sink{} }

// Attach sets the destination of later emissions.
func (s *Sink) Attach(sender Sender) {
	s.sender.Store(&sender)
}

func (s *Sink) send(msg tea.Msg) {
	if p := s.sender.Load(); p != nil {
		(*p).Send(msg)
	}
}

func (s *Sink) Output(sessionID, buffer string) {
	s.send(msgs.OutputMsg{SessionID: sessionID, Buffer: buffer})
}

func (s *Sink) Progress(sessionID string, consumed, total int, label string) {
	s.send(msgs.ProgressMsg{SessionID: sessionID, Consumed: consumed, Total: total, Label: label})
}

func (s *Sink) Failed(sessionID, message string) {
	s.send(msgs.FailedMsg{SessionID: sessionID, Message: message})
}

func (s *Sink) Finished(r session.Result) {
	s.send(msgs.FinishedMsg{Result: r})
}
