package styles

import "github.com/charmbracelet/lipgloss"

var (
	ColorFg      = lipgloss.Color("7")
	ColorMuted   = lipgloss.Color("8")
	ColorAccent  = lipgloss.Color("4")
	ColorError   = lipgloss.Color("1")
	ColorSuccess = lipgloss.Color("2")
	ColorWarning = lipgloss.Color("3")
	ColorMagenta = lipgloss.Color("5")
)

var (
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle  = lipgloss.NewStyle().Bold(true)
	DimStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	NoticeStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	SpinnerStyle = lipgloss.NewStyle().Foreground(ColorMagenta)

	// Prompt text inside the output pane.
	PromptStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(ColorError).
			Foreground(ColorError)

	FocusedBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorAccent)
	StreamBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMagenta)
	DisabledBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted)
)

// Separator between status bar segments.
const Dot = " · "
