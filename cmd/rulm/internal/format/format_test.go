package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFmtTokens(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{1200, "1.2k"},
		{3_400_000, "3.4M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FmtTokens(tt.input), "FmtTokens(%d)", tt.input)
	}
}

func TestFmtDuration(t *testing.T) {
	assert.Equal(t, "0.1s", FmtDuration(100*time.Millisecond))
	assert.Equal(t, "30.0s", FmtDuration(30*time.Second))
	assert.Equal(t, "2m 5s", FmtDuration(125*time.Second))
}

func TestFmtTemperature(t *testing.T) {
	assert.Equal(t, "0.2", FmtTemperature(0.2))
	assert.Equal(t, "1.0", FmtTemperature(1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hell…", Truncate("hello world", 5))
	assert.Equal(t, "a b", Truncate("a\nb", 10))
	assert.Empty(t, Truncate("abc", 0))

	// Wide runes take two cells each.
	assert.Equal(t, "日本…", Truncate("日本語テキスト", 5))
}

func TestFraction(t *testing.T) {
	assert.InDelta(t, 0.5, Fraction(5, 10), 1e-9)
	assert.InDelta(t, 0.0, Fraction(3, 0), 1e-9)
	assert.InDelta(t, 1.0, Fraction(12, 10), 1e-9)
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nsome *text*", 40)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
}
