package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/germanamz/rulm/cmd/rulm/internal/format"
	"github.com/germanamz/rulm/cmd/rulm/internal/styles"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/usage"
)

// statusInfo is everything the status bar shows.
type statusInfo struct {
	params   registry.Params
	state    string
	last     usage.Entry
	hasLast  bool
	total    usage.TokenCount
	duration time.Duration
	relay    string
}

// renderStatus lays out the status bar on one line of at most width cells.
func renderStatus(width int, s statusInfo) string {
	parts := []string{
		s.params.Model,
		"t=" + format.FmtTemperature(s.params.Temperature),
		fmt.Sprintf("max=%d/%d", s.params.MaxTokens, s.params.MaxTokensCeiling),
		s.state,
	}

	if s.hasLast {
		parts = append(parts, fmt.Sprintf("last: ↑%s ↓%s",
			format.FmtTokens(s.last.Tokens.PromptTokens),
			format.FmtTokens(s.last.Tokens.GeneratedTokens)))
	}
	if s.total.Total() > 0 {
		parts = append(parts, fmt.Sprintf("total: ↑%s ↓%s",
			format.FmtTokens(s.total.PromptTokens),
			format.FmtTokens(s.total.GeneratedTokens)))
	}
	if s.duration > 0 {
		parts = append(parts, format.FmtDuration(s.duration))
	}
	if s.relay != "" {
		parts = append(parts, "relay "+s.relay)
	}

	line := " " + strings.Join(parts, styles.Dot)

	return styles.StatusStyle.Render(format.Truncate(line, width))
}
