package completion

import "fmt"

// APIError reports a failure signalled by the completion service: a non-2xx
// response, an error record inside the stream, or a stream that could not be
// decoded. Error returns Message unchanged so it can be shown to the user.
type APIError struct {
	Status  int    // HTTP status for non-2xx responses; 0 for in-stream failures.
	Message string // Response body, in-stream error text, or decode diagnostic.
	Err     error  // Underlying decode error, if any.
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// TransportError reports that the connection could not be established or
// broke while the body was being read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
