package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/germanamz/rulm/cmd/rulm/internal/app"
	"github.com/germanamz/rulm/cmd/rulm/internal/bridge"
	"github.com/germanamz/rulm/pkg/completion"
	"github.com/germanamz/rulm/pkg/config"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/relay"
	"github.com/germanamz/rulm/pkg/rulmdir"
	"github.com/germanamz/rulm/pkg/session"
	"github.com/germanamz/rulm/pkg/usage"
)

var errCancelled = errors.New("cancelled")

// env is the state shared by all commands, filled in by setup.
type env struct {
	configPath string
	envFile    string

	cfg    config.Config
	reg    *registry.Registry
	client *completion.Client
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var relayAddr string

	root := &cobra.Command{
		Use:   "rulm",
		Short: "Stream completions from Russian LLMs",
		Long: `rulm continues a prompt with one of the rulm models and streams the
result as it is generated.

Without a subcommand it starts the interactive editor.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, cmd == cmd.Root())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(cmd.Context(), relayAddr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "path to configuration file (default: ./rulm.yaml, then the user config)")
	pf.StringVar(&e.envFile, "env", ".env", "path to .env file (ignored if missing)")
	pf.String("endpoint", "", "completion endpoint URL")
	pf.String("model", "", "default model")
	pf.String("log-file", "", "log file path (\"-\" for stderr)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Duration("timeout", 0, "request timeout (0 for none)")

	root.Flags().StringVar(&relayAddr, "relay-addr", "", "also serve session events over WebSocket on this address")

	root.AddCommand(
		newCompleteCmd(e),
		newModelsCmd(e),
		newInitCmd(),
		newMCPCmd(e),
	)

	return root
}

// setup loads the environment, the config and the logger, and builds the
// completion client. tui selects the default log destination.
func (e *env) setup(cmd *cobra.Command, tui bool) error {
	dir, dirErr := rulmdir.User()

	if err := loadDotEnv(e.envFile); err != nil {
		return err
	}
	if dirErr == nil {
		if err := loadDotEnv(dir.EnvPath()); err != nil {
			return err
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(rulmdir.ResolveConfig(e.configPath, wd, dir), cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	logPath := cfg.LogFile
	if logPath == "" && tui && dirErr == nil {
		if err := rulmdir.EnsureStructure(dir); err != nil {
			return err
		}
		logPath = dir.LogPath()
	}

	logger, closer, err := newLogger(logPath, cfg.LogLevel)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.reg = reg
	e.logger = logger
	e.closer = closer
	e.client = newClient(cfg, logger)

	logger.Debug("config loaded", "endpoint", cfg.Endpoint, "model", cfg.Model, "models", reg.Len())

	return nil
}

func (e *env) close() error {
	if e.closer == nil {
		return nil
	}

	return e.closer.Close()
}

// defaultParams are the generation parameters a session starts with.
func (e *env) defaultParams() (registry.Params, error) {
	return e.reg.Select(e.cfg.Model, registry.Params{MaxTokens: e.cfg.DefaultMaxTokens})
}

// sessionOptions are the controller options every command shares, followed
// by extra.
func (e *env) sessionOptions(extra ...session.Option) []session.Option {
	opts := []session.Option{session.WithLogger(e.logger)}
	if e.cfg.ProgressLabel != "" {
		opts = append(opts, session.WithProgressLabel(e.cfg.ProgressLabel))
	}

	return append(opts, extra...)
}

func (e *env) runTUI(ctx context.Context, relayAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	params, err := e.defaultParams()
	if err != nil {
		return err
	}

	sink := bridge.NewSink()
	tracker := &usage.Tracker{}
	ctrl := session.NewController(e.client, e.reg, e.sessionOptions(
		session.WithSink(sink),
		session.WithUsage(tracker),
	)...)

	if relayAddr != "" {
		srv := relay.New(ctrl.Events(), relay.WithLogger(e.logger))
		go func() {
			if err := srv.ListenAndServe(ctx, relayAddr); err != nil {
				e.logger.Error("relay stopped", "error", err)
			}
		}()
	}

	model := app.New(ctx, app.Options{
		Controller: ctrl,
		Usage:      tracker,
		Params:     params,
		Examples:   e.cfg.Examples,
		RelayAddr:  relayAddr,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	sink.Attach(p)

	_, err = p.Run()

	if h := ctrl.Active(); h != nil {
		h.Cancel()
		<-h.Done()
	}

	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	return nil
}

// loadDotEnv loads environment variables from path. If the file does not exist
// it is silently ignored so that .env files remain optional.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds a text logger writing to path. An empty path discards
// everything; "-" writes to stderr.
func newLogger(path, level string) (*slog.Logger, io.Closer, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	switch path {
	case "":
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	case "-":
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})), f, nil
}

func newClient(cfg config.Config, logger *slog.Logger) *completion.Client {
	return completion.New(cfg.Endpoint,
		completion.WithHeaders(cfg.Headers),
		completion.WithLogger(logger),
		completion.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
}
