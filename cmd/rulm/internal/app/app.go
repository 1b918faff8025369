// Package app is the root bubbletea model of the rulm TUI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/germanamz/rulm/cmd/rulm/internal/format"
	"github.com/germanamz/rulm/cmd/rulm/internal/msgs"
	"github.com/germanamz/rulm/cmd/rulm/internal/styles"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/session"
	"github.com/germanamz/rulm/pkg/usage"
)

// Options configure a Model.
type Options struct {
	Controller *session.Controller
	Usage      *usage.Tracker // May be nil.
	Params     registry.Params
	Examples   []string
	RelayAddr  string // Shown in the status bar when set.
}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	ctrl    *session.Controller
	reg     *registry.Registry
	tracker *usage.Tracker

	keys     keyMap
	help     help.Model
	editor   textarea.Model
	output   viewport.Model
	progress progress.Model
	spinner  spinner.Model

	params     registry.Params
	examples   []string
	exampleIdx int
	relayAddr  string

	streaming     bool
	handle        *session.Handle
	cancelPending bool
	buffer        string

	showProgress bool
	consumed     int
	total        int
	label        string

	errMsg   string
	notice   string
	state    string
	duration time.Duration

	width  int
	height int
}

// New creates the root model. ctx bounds every session it submits.
func New(ctx context.Context, o Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a prompt... (ctrl+e for an example)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		ctx:       ctx,
		ctrl:      o.Controller,
		reg:       o.Controller.Registry(),
		tracker:   o.Usage,
		keys:      defaultKeyMap(),
		help:      help.New(),
		editor:    ta,
		output:    viewport.New(0, 0),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:   sp,
		params:    o.Params,
		examples:  o.Examples,
		relayAddr: o.RelayAddr,
		state:     session.StateIdle.String(),
	}
}

// Params returns the current generation parameters.
func (m Model) Params() registry.Params { return m.params }

// Prompt returns the editor contents.
func (m Model) Prompt() string { return m.editor.Value() }

// Streaming reports whether a session is running.
func (m Model) Streaming() bool { return m.streaming }

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.syncLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case msgs.SubmittedMsg:
		return m.handleSubmitted(msg)

	case msgs.OutputMsg:
		if !m.streaming {
			return m, nil
		}
		m.showProgress = false
		m.setBuffer(msg.Buffer)
		return m, nil

	case msgs.ProgressMsg:
		if !m.streaming {
			return m, nil
		}
		m.showProgress = true
		m.consumed, m.total, m.label = msg.Consumed, msg.Total, msg.Label
		return m, nil

	case msgs.FailedMsg:
		m.errMsg = msg.Message
		m.syncLayout()
		return m, nil

	case msgs.FinishedMsg:
		return m.handleFinished(msg.Result)

	case msgs.CopiedMsg:
		if msg.Err != nil {
			m.errMsg = "copy: " + msg.Err.Error()
		} else {
			m.notice = "copied to clipboard"
		}
		m.syncLayout()
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.delegate(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.handle != nil {
			return m, tea.Sequence(cancelCmd(m.handle), tea.Quit)
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.syncLayout()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		text := m.editor.Value()
		if m.streaming {
			text = m.buffer
		}
		return m, copyCmd(text)

	case key.Matches(msg, m.keys.Cancel):
		if !m.streaming {
			return m, nil
		}
		if m.handle == nil {
			m.cancelPending = true
			return m, nil
		}
		return m, cancelCmd(m.handle)
	}

	if m.streaming {
		return m.delegate(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Example):
		if len(m.examples) > 0 {
			m.editor.SetValue(m.examples[m.exampleIdx%len(m.examples)])
			m.exampleIdx++
		}
		return m, nil

	case key.Matches(msg, m.keys.NextModel):
		m.selectModel(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevModel):
		m.selectModel(-1)
		return m, nil

	case key.Matches(msg, m.keys.TempUp):
		m.params = m.params.AdjustTemperature(1)
		return m, nil

	case key.Matches(msg, m.keys.TempDown):
		m.params = m.params.AdjustTemperature(-1)
		return m, nil

	case key.Matches(msg, m.keys.TokensUp):
		m.params = m.params.AdjustMaxTokens(maxTokensStep)
		return m, nil

	case key.Matches(msg, m.keys.TokensDn):
		m.params = m.params.AdjustMaxTokens(-maxTokensStep)
		return m, nil
	}

	return m.delegate(msg)
}

// delegate forwards msg to the editor when idle and to the output pane
// while streaming.
func (m Model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.streaming {
		m.output, cmd = m.output.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}

	return m, cmd
}

func (m *Model) selectModel(delta int) {
	p, err := m.reg.Select(m.reg.Next(m.params.Model, delta), m.params)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.params = p
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	prompt := m.editor.Value()
	if strings.TrimSpace(prompt) == "" {
		m.errMsg = "prompt is empty"
		m.syncLayout()
		return m, nil
	}

	in := session.NewInput(prompt, m.params)

	m.streaming = true
	m.handle = nil
	m.cancelPending = false
	m.errMsg = ""
	m.notice = ""
	m.showProgress = false
	m.state = session.StateStreaming.String()
	m.editor.Blur()
	m.setBuffer(prompt)
	m.syncLayout()

	return m, tea.Batch(submitCmd(m.ctx, m.ctrl, in), m.spinner.Tick)
}

func (m Model) handleSubmitted(msg msgs.SubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.streaming = false
		m.state = session.StateIdle.String()
		m.errMsg = msg.Err.Error()
		m.syncLayout()
		return m, m.editor.Focus()
	}

	// The session may already have finished.
	if !m.streaming {
		return m, nil
	}

	m.handle = msg.Handle
	if m.cancelPending {
		m.cancelPending = false
		return m, cancelCmd(msg.Handle)
	}

	return m, nil
}

func (m Model) handleFinished(r session.Result) (tea.Model, tea.Cmd) {
	m.streaming = false
	m.handle = nil
	m.cancelPending = false
	m.showProgress = false
	m.state = r.State.String()
	m.duration = r.Duration

	// The final buffer becomes the next prompt, so a follow-up submit
	// continues the text.
	if r.Generated != "" {
		m.editor.SetValue(r.Output)
		m.editor.CursorEnd()
	}
	if r.State == session.StateCancelled {
		m.notice = "cancelled"
	}

	m.syncLayout()

	return m, m.editor.Focus()
}

func (m *Model) setBuffer(buf string) {
	m.buffer = buf
	w := max(m.output.Width, 1)
	m.output.SetContent(lipgloss.NewStyle().Width(w).Render(buf))
	m.output.GotoBottom()
}

// syncLayout sizes the components to the window.
func (m *Model) syncLayout() {
	if m.width == 0 {
		return
	}

	inner := max(m.width-4, 10)
	m.editor.SetWidth(inner)
	m.output.Width = inner
	m.progress.Width = max(min(m.width-30, 60), 10)
	m.help.Width = m.width

	fixed := 1 + 2 + 1 + 1 + m.helpHeight() + m.errorHeight()
	body := max(m.height-fixed, 3)
	m.editor.SetHeight(body)
	m.output.Height = body
}

func (m Model) helpHeight() int {
	if m.help.ShowAll {
		return len(m.keys.FullHelp()[0])
	}
	return 1
}

func (m Model) errorHeight() int {
	if m.errMsg == "" {
		return 0
	}
	return strings.Count(m.renderError(), "\n") + 1
}

func (m Model) renderError() string {
	return styles.ErrorBlockStyle.Width(max(m.width-2, 10)).Render("error: " + m.errMsg)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	parts := []string{m.renderHeader()}

	if m.streaming {
		parts = append(parts, styles.StreamBorder.Width(m.output.Width).Render(m.output.View()))
	} else {
		parts = append(parts, styles.FocusedBorder.Width(m.editor.Width()).Render(m.editor.View()))
	}

	parts = append(parts, m.renderActivity())

	if m.errMsg != "" {
		parts = append(parts, m.renderError())
	}

	parts = append(parts, renderStatus(m.width, m.statusInfo()), m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("rulm")
	if m.streaming {
		return title + " " + m.spinner.View()
	}
	return title
}

// renderActivity is the line under the text pane: the prompt progress bar,
// a generation indicator, or the last notice.
func (m Model) renderActivity() string {
	switch {
	case m.streaming && m.showProgress:
		return fmt.Sprintf(" %s %s %s",
			styles.LabelStyle.Render(m.label),
			m.progress.ViewAs(format.Fraction(m.consumed, m.total)),
			styles.DimStyle.Render(fmt.Sprintf("%d/%d", m.consumed, m.total)))
	case m.streaming:
		return " " + m.spinner.View() + styles.DimStyle.Render(" generating...")
	case m.notice != "":
		return " " + styles.NoticeStyle.Render(m.notice)
	default:
		return ""
	}
}

func (m Model) statusInfo() statusInfo {
	s := statusInfo{
		params:   m.params,
		state:    m.state,
		duration: m.duration,
		relay:    m.relayAddr,
	}
	if m.tracker != nil {
		s.last, s.hasLast = m.tracker.Last()
		s.total = m.tracker.Total()
	}

	return s
}

func submitCmd(ctx context.Context, ctrl *session.Controller, in session.Input) tea.Cmd {
	return func() tea.Msg {
		h, err := ctrl.Submit(ctx, in)
		return msgs.SubmittedMsg{Handle: h, Err: err}
	}
}

func cancelCmd(h *session.Handle) tea.Cmd {
	return func() tea.Msg {
		h.Cancel()
		return nil
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return msgs.CopiedMsg{Err: clipboard.WriteAll(text)}
	}
}
