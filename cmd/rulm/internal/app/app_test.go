package app

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/rulm/cmd/rulm/internal/msgs"
	"github.com/germanamz/rulm/pkg/completion"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/session"
	"github.com/germanamz/rulm/pkg/usage"
)

type nopCompleter struct{}

func (nopCompleter) Complete(context.Context, completion.Request) (completion.Stream, error) {
	return nil, errors.New("not used")
}

func newTestModel(t *testing.T) Model {
	t.Helper()

	reg := registry.Default()
	params, err := reg.Select(registry.DefaultModel, registry.Params{MaxTokens: 128})
	require.NoError(t, err)

	m := New(context.Background(), Options{
		Controller: session.NewController(nopCompleter{}, reg),
		Usage:      &usage.Tracker{},
		Params:     params,
		Examples:   []string{"first", "second"},
	})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(k)
	return updated.(Model), cmd
}

func TestModel_ModelSwitchResetsParams(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "saiga-7b-q4", m.Params().Model)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	assert.InDelta(t, 0.4, m.Params().Temperature, 1e-9)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	p := m.Params()
	assert.Equal(t, "saiga-7b-v2-q4", p.Model)
	assert.InDelta(t, 0.2, p.Temperature, 1e-9)
	assert.Equal(t, 2000, p.MaxTokensCeiling)
	assert.Equal(t, 128, p.MaxTokens)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "ru-alpaca-7b-q4", m.Params().Model)
	assert.Equal(t, 512, m.Params().MaxTokensCeiling)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, "saiga-7b-v2-q4", m.Params().Model)
}

func TestModel_MaxTokensStaysInRange(t *testing.T) {
	m := newTestModel(t)

	for range 20 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft, Alt: true})
	}
	assert.Equal(t, 1, m.Params().MaxTokens)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	assert.Equal(t, 17, m.Params().MaxTokens)
}

func TestModel_ExamplesCycle(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, "first", m.Prompt())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, "second", m.Prompt())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, "first", m.Prompt())
}

func TestModel_EmptyPromptNotSubmitted(t *testing.T) {
	m := newTestModel(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.False(t, m.Streaming())
	assert.Contains(t, m.View(), "prompt is empty")
}

func TestModel_SessionLifecycle(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.Streaming())

	// Parameter keys are ignored while streaming.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "saiga-7b-q4", m.Params().Model)

	updated, _ := m.Update(msgs.ProgressMsg{SessionID: "s", Consumed: 5, Total: 10, Label: "Processing prompt"})
	m = updated.(Model)
	assert.Contains(t, m.View(), "Processing prompt")
	assert.Contains(t, m.View(), "5/10")

	updated, _ = m.Update(msgs.OutputMsg{SessionID: "s", Buffer: "first\nAB"})
	m = updated.(Model)
	assert.Contains(t, m.View(), "AB")

	updated, _ = m.Update(msgs.FinishedMsg{Result: session.Result{
		SessionID: "s",
		State:     session.StateCompleted,
		Output:    "first\nAB",
		Generated: "AB",
	}})
	m = updated.(Model)
	assert.False(t, m.Streaming())
	assert.Equal(t, "first\nAB", m.Prompt())
	assert.Contains(t, m.View(), "completed")
}

func TestModel_FailureShowsMessage(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	updated, _ := m.Update(msgs.FailedMsg{SessionID: "s", Message: "overloaded"})
	m = updated.(Model)
	updated, _ = m.Update(msgs.FinishedMsg{Result: session.Result{
		SessionID: "s",
		State:     session.StateFailed,
		Output:    "first\n",
	}})
	m = updated.(Model)

	assert.False(t, m.Streaming())
	assert.Equal(t, "first", m.Prompt(), "prompt kept when nothing was generated")
	assert.Contains(t, m.View(), "overloaded")
}

func TestModel_LateSubmittedIgnored(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	updated, _ := m.Update(msgs.FinishedMsg{Result: session.Result{State: session.StateFailed}})
	m = updated.(Model)

	updated, cmd := m.Update(msgs.SubmittedMsg{Handle: nil})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.Streaming())
}

func TestModel_SubmitErrorReturnsToEditor(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	updated, _ := m.Update(msgs.SubmittedMsg{Err: session.ErrInvalidParams})
	m = updated.(Model)
	assert.False(t, m.Streaming())
	assert.Contains(t, m.View(), "invalid parameters")
}
