package session

// Sink receives the emissions of a session in order. Calls come from the
// session's consumption goroutine, one at a time. A Sink must not call
// Cancel or Submit synchronously; hand the request to another goroutine.
type Sink interface {
	// Output delivers the whole buffer after a token was appended.
	Output(sessionID, buffer string)
	// Progress reports prompt processing.
	Progress(sessionID string, consumed, total int, label string)
	// Failed delivers the user-visible message of a failed session.
	Failed(sessionID, message string)
	// Finished is called once when the session reaches a terminal state.
	Finished(r Result)
}

// SinkFuncs adapts plain functions to Sink. Nil fields are skipped.
type SinkFuncs struct {
	OnOutput   func(sessionID, buffer string)
	OnProgress func(sessionID string, consumed, total int, label string)
	OnFailed   func(sessionID, message string)
	OnFinished func(r Result)
}

var _ Sink = SinkFuncs{}

func (f SinkFuncs) Output(sessionID, buffer string) {
	if f.OnOutput != nil {
		f.OnOutput(sessionID, buffer)
	}
}

func (f SinkFuncs) Progress(sessionID string, consumed, total int, label string) {
	if f.OnProgress != nil {
		f.OnProgress(sessionID, consumed, total, label)
	}
}

func (f SinkFuncs) Failed(sessionID, message string) {
	if f.OnFailed != nil {
		f.OnFailed(sessionID, message)
	}
}

func (f SinkFuncs) Finished(r Result) {
	if f.OnFinished != nil {
		f.OnFinished(r)
	}
}
