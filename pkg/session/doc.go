// Package session drives generation sessions: it validates the user's
// parameters, starts a streaming completion, folds the incoming events into
// an output buffer, and reports every change to a [Sink].
//
// A [Controller] runs at most one session at a time. Submitting while a
// session is streaming cancels it first. Each session is represented by a
// [Handle], which is also its cancellation token. Cancellation is
// cooperative: once [Handle.Cancel] returns, the session emits no further
// output or progress.
package session
