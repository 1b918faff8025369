package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/germanamz/rulm/pkg/completion"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/usage"
)

const (
	DefaultSeparator     = "\n"
	DefaultProgressLabel = "Обрабатывает промпт"
)

// Completer opens a completion stream. *completion.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, r completion.Request) (completion.Stream, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink sets the receiver of session emissions.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSeparator sets the text inserted between the prompt and the generated
// tokens.
func WithSeparator(sep string) Option {
	return func(c *Controller) { c.separator = sep }
}

// WithProgressLabel sets the label attached to progress emissions.
func WithProgressLabel(label string) Option {
	return func(c *Controller) { c.progressLabel = label }
}

// WithUsage records token counts of every finished session in t.
func WithUsage(t *usage.Tracker) Option {
	return func(c *Controller) { c.usage = t }
}

// Controller runs generation sessions, at most one at a time.
type Controller struct {
	client        Completer
	registry      *registry.Registry
	sink          Sink
	events        *EventBus
	logger        *slog.Logger
	usage         *usage.Tracker
	separator     string
	progressLabel string

	submitMu sync.Mutex
	mu       sync.Mutex
	active   *Handle
}

// NewController creates a Controller that submits to client and validates
// against reg.
func NewController(client Completer, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		client:        client,
		registry:      reg,
		sink:          SinkFuncs{},
		events:        NewEventBus(),
		logger:        slog.New(slog.DiscardHandler),
		separator:     DefaultSeparator,
		progressLabel: DefaultProgressLabel,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// Events returns the bus on which controller activity is published.
func (c *Controller) Events() *EventBus { return c.events }

// Registry returns the registry submissions are validated against.
func (c *Controller) Registry() *registry.Registry { return c.registry }

// State reports StateStreaming while a session is active, StateIdle otherwise.
func (c *Controller) State() State {
	if c.Active() != nil {
		return StateStreaming
	}

	return StateIdle
}

// Active returns the running session, or nil.
func (c *Controller) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

// Cancel stops h. It is equivalent to h.Cancel.
func (c *Controller) Cancel(h *Handle) {
	if h != nil {
		h.Cancel()
	}
}

// Submit validates in and starts a session. A running session is cancelled
// and its loop has exited before the new one starts. Invalid input is
// rejected with an error wrapping ErrInvalidParams and leaves the controller
// untouched.
func (c *Controller) Submit(ctx context.Context, in Input) (*Handle, error) {
	if _, err := validate(c.registry, in); err != nil {
		return nil, err
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	if prev := c.Active(); prev != nil {
		c.logger.Debug("cancelling previous session", "session", prev.ID())
		prev.Cancel()
		<-prev.Done()
	}

	sctx, cancel := context.WithCancel(ctx)
	h := newHandle(uuid.NewString(), in.Model, cancel)

	c.mu.Lock()
	c.active = h
	c.mu.Unlock()

	c.logger.Info("session started", "session", h.id, "model", in.Model,
		"temperature", in.Temperature, "max_tokens", in.MaxTokens)
	c.events.Publish(Event{
		Kind:      EventSessionStart,
		SessionID: h.id,
		Model:     in.Model,
		Timestamp: time.Now(),
	})

	go c.run(sctx, h, in)

	return h, nil
}

// Run submits in and waits for the session to end. The returned error is
// either a validation error or Result.Err.
func (c *Controller) Run(ctx context.Context, in Input) (Result, error) {
	h, err := c.Submit(ctx, in)
	if err != nil {
		return Result{}, err
	}

	r := h.Wait()

	return r, r.Err
}

// run is the consumption loop. It owns the buffer.
func (c *Controller) run(ctx context.Context, h *Handle, in Input) {
	defer close(h.done)
	defer h.cancel()

	start := time.Now()

	var (
		buf    strings.Builder
		tokens usage.TokenCount
	)
	buf.WriteString(in.Prompt)
	buf.WriteString(c.separator)
	prefix := buf.Len()

	stream, err := c.client.Complete(ctx, completion.Request{
		Prompt:      in.Prompt,
		Model:       in.Model,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err == nil {
		if h.attach(stream) {
			err = c.consume(h, stream, &buf, &tokens)
		} else {
			err = context.Canceled
		}
		_ = stream.Close()
	}

	h.mu.Lock()
	state := StateFailed
	switch {
	case h.cancelled:
		state = StateCancelled
		err = nil
	case errors.Is(err, io.EOF):
		state = StateCompleted
		err = nil
	case ctx.Err() != nil:
		state = StateCancelled
		err = nil
	default:
		c.sink.Failed(h.id, err.Error())
		c.events.Publish(Event{
			Kind:      EventError,
			SessionID: h.id,
			Model:     in.Model,
			Timestamp: time.Now(),
			Error:     err.Error(),
		})
	}

	output := buf.String()
	h.state = state
	h.result = Result{
		SessionID: h.id,
		Model:     in.Model,
		State:     state,
		Output:    output,
		Generated: output[prefix:],
		Err:       err,
		Tokens:    tokens,
		Duration:  time.Since(start),
	}
	result := h.result
	h.mu.Unlock()

	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()

	if c.usage != nil {
		c.usage.Record(in.Model, tokens)
	}

	if err != nil {
		c.logger.Warn("session failed", "session", h.id, "error", err)
	}
	c.logger.Info("session finished", "session", h.id, "state", state.String(),
		"generated_tokens", tokens.GeneratedTokens, "duration", result.Duration)

	c.events.Publish(Event{
		Kind:      EventSessionEnd,
		SessionID: h.id,
		Model:     in.Model,
		Timestamp: time.Now(),
		State:     state.String(),
	})
	c.sink.Finished(result)
}

// consume folds stream events into buf until the stream ends, fails, or the
// session is cancelled. It returns io.EOF on normal completion.
func (c *Controller) consume(h *Handle, stream completion.Stream, buf *strings.Builder, tokens *usage.TokenCount) error {
	for {
		ev, err := stream.Recv()
		if err != nil {
			return err
		}

		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return context.Canceled
		}

		switch ev.Kind {
		case completion.EventToken:
			buf.WriteString(ev.Text)
			tokens.GeneratedTokens++
			text := buf.String()
			c.sink.Output(h.id, text)
			c.events.Publish(Event{
				Kind:      EventOutput,
				SessionID: h.id,
				Model:     h.model,
				Timestamp: time.Now(),
				Text:      text,
			})
		case completion.EventProgress:
			tokens.PromptTokens = ev.Total
			c.sink.Progress(h.id, ev.Consumed, ev.Total, c.progressLabel)
			c.events.Publish(Event{
				Kind:      EventProgress,
				SessionID: h.id,
				Model:     h.model,
				Timestamp: time.Now(),
				Consumed:  ev.Consumed,
				Total:     ev.Total,
				Label:     c.progressLabel,
			})
		}
		h.mu.Unlock()
	}
}
