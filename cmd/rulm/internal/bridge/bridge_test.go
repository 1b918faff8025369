package bridge

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/germanamz/rulm/cmd/rulm/internal/msgs"
	"github.com/germanamz/rulm/pkg/session"
)

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestSink_DropsBeforeAttach(t *testing.T) {
	s := NewSink()
	s.Output("s1", "ignored")

	r := &recorder{}
	s.Attach(r)
	s.Output("s1", "kept")

	assert.Equal(t, []tea.Msg{msgs.OutputMsg{SessionID: "s1", Buffer: "kept"}}, r.msgs)
}

func TestSink_ForwardsEveryEmission(t *testing.T) {
	r := &recorder{}
	s := NewSink()
	s.Attach(r)

	res := session.Result{SessionID: "s1", State: session.StateFailed, Output: "p\nA"}

	s.Progress("s1", 5, 10, "Processing prompt")
	s.Output("s1", "p\nA")
	s.Failed("s1", "overloaded")
	s.Finished(res)

	assert.Equal(t, []tea.Msg{
		msgs.ProgressMsg{SessionID: "s1", Consumed: 5, Total: 10, Label: "Processing prompt"},
		msgs.OutputMsg{SessionID: "s1", Buffer: "p\nA"},
		msgs.FailedMsg{SessionID: "s1", Message: "overloaded"},
		msgs.FinishedMsg{Result: res},
	}, r.msgs)
}
