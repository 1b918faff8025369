// Package completion is a client for a streaming text-completion endpoint.
//
// A completion is requested with a single JSON POST; the response body is a
// sequence of newline-delimited JSON records. Each record is decoded into a
// typed [Event] (generated text or prompt-processing progress) and handed out
// one at a time through a [Stream]. Records carrying an error, records that
// are not valid JSON, and non-success responses all surface as [*APIError];
// network failures surface as [*TransportError].
package completion
