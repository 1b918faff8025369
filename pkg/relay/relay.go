// Package relay mirrors session controller events to WebSocket clients so an
// external display can follow generation as it happens.
//
// GET /events upgrades to a WebSocket and streams one JSON text frame per
// session.Event. The relay never slows the controller down: a client that
// falls behind misses events, and output frames carry the whole buffer so
// the next one catches it up.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/germanamz/rulm/pkg/session"
)

const (
	defaultBuffer       = 64
	defaultWriteTimeout = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithOriginPatterns allows cross-origin browser clients matching patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.origins = patterns }
}

// WithBuffer sets the per-client event buffer.
func WithBuffer(n int) Option {
	return func(s *Server) { s.buffer = n }
}

// Server serves the event stream of one EventBus.
type Server struct {
	bus          *session.EventBus
	logger       *slog.Logger
	origins      []string
	buffer       int
	writeTimeout time.Duration

	clients atomic.Int64
}

// New creates a Server relaying events from bus.
func New(bus *session.EventBus, opts ...Option) *Server {
	s := &Server{
		bus:          bus,
		logger:       slog.New(slog.DiscardHandler),
		buffer:       defaultBuffer,
		writeTimeout: defaultWriteTimeout,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// Handler returns the HTTP handler serving GET /events.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.serveEvents)

	return mux
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so a client sees every event
	// published after Dial returns.
	sub := s.bus.Subscribe(s.buffer)
	defer s.bus.Unsubscribe(sub)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.logger.Debug("relay: accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow() //nolint:errcheck // best effort

	s.clients.Add(1)
	defer s.clients.Add(-1)

	s.logger.Info("relay: client connected", "remote", r.RemoteAddr)

	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("relay: client gone", "remote", r.RemoteAddr)
			return
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "relay stopped")
				return
			}
			if err := s.write(ctx, conn, ev); err != nil {
				s.logger.Debug("relay: write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, ev session.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	return wsjson.Write(ctx, conn, ev)
}

// ListenAndServe serves the relay on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves the relay on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("relay: serving", "addr", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay: serve: %w", err)
	}

	return nil
}
