package format

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// FmtTokens formats a token count for display, using k/M suffixes.
func FmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FmtDuration formats a duration for display.
func FmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

// FmtTemperature formats a temperature with one decimal.
func FmtTemperature(t float64) string {
	return fmt.Sprintf("%.1f", t)
}

// Truncate shortens s to at most width terminal cells, appending an
// ellipsis when cut. Newlines become spaces.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}

	return runewidth.Truncate(s, width, "…")
}

// Fraction returns consumed/total clamped to [0,1]. A zero total yields 0.
func Fraction(consumed, total int) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(consumed) / float64(total)

	return max(0, min(1, f))
}

var (
	mdMu       sync.Mutex
	mdRenderer *glamour.TermRenderer
	mdWidth    int
)

// RenderMarkdown converts markdown text to terminal-formatted output wrapped
// at width. On renderer failure the text is returned unchanged.
func RenderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 100
	}

	mdMu.Lock()
	defer mdMu.Unlock()

	if mdRenderer == nil || mdWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		mdRenderer, mdWidth = r, width
	}

	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}
