// Package usage accumulates token counts of generation sessions so the
// front-end can show what the last run and the whole process consumed.
package usage

import (
	"slices"
	"sync"
)

// TokenCount holds the token counts of one generation session. PromptTokens
// is the total reported by the last progress record; GeneratedTokens is the
// number of token records received.
type TokenCount struct {
	PromptTokens    int
	GeneratedTokens int
}

// Total returns the sum of prompt and generated tokens.
func (tc TokenCount) Total() int {
	return tc.PromptTokens + tc.GeneratedTokens
}

// Add returns the field-wise sum of tc and other.
func (tc TokenCount) Add(other TokenCount) TokenCount {
	return TokenCount{
		PromptTokens:    tc.PromptTokens + other.PromptTokens,
		GeneratedTokens: tc.GeneratedTokens + other.GeneratedTokens,
	}
}

// Entry is the usage of one finished session.
type Entry struct {
	Model  string
	Tokens TokenCount
}

// Tracker accumulates entries across sessions. The zero value is ready to
// use and it is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// Record appends the usage of a finished session.
func (t *Tracker) Record(model string, tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, Entry{Model: model, Tokens: tc})
}

// Last returns the most recent entry. The bool is false when nothing has
// been recorded.
func (t *Tracker) Last() (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return Entry{}, false
	}

	return t.entries[len(t.entries)-1], true
}

// Total returns the aggregate across all entries.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total TokenCount
	for _, e := range t.entries {
		total = total.Add(e.Tokens)
	}

	return total
}

// ByModel returns the aggregate per model name and the model names in the
// order they were first used.
func (t *Tracker) ByModel() (map[string]TokenCount, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	totals := make(map[string]TokenCount)
	var order []string
	for _, e := range t.entries {
		if _, seen := totals[e.Model]; !seen {
			order = append(order, e.Model)
		}
		totals[e.Model] = totals[e.Model].Add(e.Tokens)
	}

	return totals, order
}

// Entries returns a copy of all entries in recording order.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.entries)
}

// Count returns the number of recorded sessions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Reset clears all entries.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
}
