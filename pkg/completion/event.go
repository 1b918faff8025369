package completion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// EventKind identifies the active variant of an Event.
type EventKind string

const (
	EventToken    EventKind = "token"
	EventProgress EventKind = "progress"
)

// Event is one decoded stream record. Text is set for EventToken; Consumed
// and Total are set for EventProgress.
type Event struct {
	Kind     EventKind
	Text     string
	Consumed int
	Total    int
}

// Token returns a token event.
func Token(text string) Event { return Event{Kind: EventToken, Text: text} }

// Progress returns a progress event.
func Progress(consumed, total int) Event {
	return Event{Kind: EventProgress, Consumed: consumed, Total: total}
}

// record is the wire shape of one stream line. Every field may be absent or
// null.
type record struct {
	Text           *string         `json:"text"`
	NPast          *float64        `json:"n_past"`
	NTokens        *float64        `json:"n_tokens"`
	PromptProgress json.RawMessage `json:"prompt_progress"`
	Error          json.RawMessage `json:"error"`
}

// progressObject covers the object forms of prompt_progress.
type progressObject struct {
	Processed *float64 `json:"processed"`
	Total     *float64 `json:"total"`
	NPast     *float64 `json:"n_past"`
	NTokens   *float64 `json:"n_tokens"`
}

// decodeRecord turns one line into an Event. ok is false for keep-alive
// records. An error field wins over everything else, then text, then
// progress.
func decodeRecord(line []byte) (ev Event, ok bool, err error) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return Event{}, false, err
	}

	if msg := errorText(r.Error); msg != "" {
		return Event{}, false, &APIError{Message: msg}
	}

	if r.Text != nil && *r.Text != "" {
		return Token(*r.Text), true, nil
	}

	if r.NPast != nil && r.NTokens != nil {
		return Progress(toInt(*r.NPast), toInt(*r.NTokens)), true, nil
	}

	if consumed, total, found := decodePromptProgress(r.PromptProgress); found {
		return Progress(consumed, total), true, nil
	}

	return Event{}, false, nil
}

// errorText extracts a message from an error field given as a string or as
// an object with a "message" member.
func errorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	return string(raw)
}

// decodePromptProgress accepts {"processed":n,"total":m},
// {"n_past":n,"n_tokens":m} or [n, m].
func decodePromptProgress(raw json.RawMessage) (consumed, total int, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, 0, false
	}

	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) != 2 {
			return 0, 0, false
		}
		return toInt(pair[0]), toInt(pair[1]), true
	}

	var obj progressObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, 0, false
	}

	switch {
	case obj.Processed != nil && obj.Total != nil:
		return toInt(*obj.Processed), toInt(*obj.Total), true
	case obj.NPast != nil && obj.NTokens != nil:
		return toInt(*obj.NPast), toInt(*obj.NTokens), true
	}

	return 0, 0, false
}

func toInt(f float64) int { return int(math.Round(f)) }

// String is used in debug logs.
func (e Event) String() string {
	if e.Kind == EventProgress {
		return fmt.Sprintf("progress(%d/%d)", e.Consumed, e.Total)
	}

	return fmt.Sprintf("token(%q)", e.Text)
}
