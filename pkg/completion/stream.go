package completion

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Stream is a finite, non-restartable sequence of events. Recv returns
// io.EOF once the body is exhausted; any other error is terminal and is
// returned again by later calls. Close abandons the connection without
// reading the rest of the body and may be called from another goroutine
// while Recv is blocked.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// lineStream decodes newline-delimited JSON records lazily from a response
// body.
type lineStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	cancel context.CancelFunc
	logger *slog.Logger

	line int
	err  error

	closeOnce sync.Once
}

func newLineStream(body io.ReadCloser, cancel context.CancelFunc, logger *slog.Logger) *lineStream {
	return &lineStream{
		body:   body,
		reader: bufio.NewReader(body),
		cancel: cancel,
		logger: logger,
	}
}

func (s *lineStream) Recv() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}

	for {
		raw, readErr := s.reader.ReadBytes('\n')
		line := bytes.TrimSpace(raw)

		if len(line) > 0 {
			s.line++

			ev, ok, err := decodeRecord(line)
			if err != nil {
				return Event{}, s.fail(s.recordError(err))
			}
			if ok {
				return ev, nil
			}
			s.logger.Debug("completion keep-alive", "line", s.line)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return Event{}, s.fail(io.EOF)
			}
			return Event{}, s.fail(&TransportError{Err: readErr})
		}
	}
}

// recordError converts a decode failure into the stream's terminal error.
func (s *lineStream) recordError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return &APIError{
		Message: fmt.Sprintf("malformed stream record at line %d: %v", s.line, err),
		Err:     err,
	}
}

// fail records a terminal error and releases the connection.
func (s *lineStream) fail(err error) error {
	s.err = err
	_ = s.Close()

	return err
}

func (s *lineStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
	})

	return err
}
