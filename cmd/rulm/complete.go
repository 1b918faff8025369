package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/germanamz/rulm/cmd/rulm/internal/format"
	"github.com/germanamz/rulm/cmd/rulm/internal/styles"
	"github.com/germanamz/rulm/pkg/session"
)

func newCompleteCmd(e *env) *cobra.Command {
	var (
		render      bool
		temperature float64
		maxTokens   int
	)

	cmd := &cobra.Command{
		Use:   "complete [prompt]",
		Short: "Stream one completion to stdout",
		Long: `Continue the prompt and stream the generated text to stdout. The prompt is
read from stdin when no argument is given. Progress goes to stderr when it
is a terminal. Ctrl+C cancels the session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			params, err := e.defaultParams()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("temperature") {
				params.Temperature = temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				params.MaxTokens = maxTokens
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := &streamPrinter{
				out:      cmd.OutOrStdout(),
				progress: io.Discard,
				prefix:   len(prompt) + len(session.DefaultSeparator),
				quiet:    render,
			}
			if isTerminal(os.Stderr) {
				p.progress = cmd.ErrOrStderr()
			}

			ctrl := session.NewController(e.client, e.reg, e.sessionOptions(session.WithSink(p.sink()))...)

			res, err := ctrl.Run(ctx, session.NewInput(prompt, params))
			p.clearProgress()

			if err != nil {
				if res.State == session.StateFailed {
					p.endLine()
				}
				return err
			}

			p.endLine()
			if res.State == session.StateCancelled {
				return errCancelled
			}

			if render {
				_, err := fmt.Fprint(cmd.OutOrStdout(), format.RenderMarkdown(res.Generated, terminalWidth(os.Stdout)))
				return err
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "render the generated text as markdown when done")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature in [0,1] (default: model default)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max tokens to generate (default: config default_max_tokens)")

	return cmd
}

// readPrompt takes the prompt from args, or from r when args is empty.
func readPrompt(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}

	prompt := strings.TrimRight(string(data), "\r\n")
	if prompt == "" {
		return "", errors.New("no prompt given")
	}

	return prompt, nil
}

// streamPrinter writes the generated part of each buffer as it grows.
type streamPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	progress io.Writer
	prefix   int  // Length of prompt plus separator.
	quiet    bool // Suppress streaming; the caller prints at the end.

	written     int
	progressOn  bool
	wroteOutput bool
}

func (p *streamPrinter) sink() session.Sink {
	return session.SinkFuncs{
		OnOutput: func(_ string, buffer string) {
			p.mu.Lock()
			defer p.mu.Unlock()

			p.clearProgressLocked()
			if p.quiet || len(buffer) <= p.prefix {
				return
			}

			from := max(p.written, p.prefix)
			if from < len(buffer) {
				_, _ = io.WriteString(p.out, buffer[from:])
				p.written = len(buffer)
				p.wroteOutput = true
			}
		},
		OnProgress: func(_ string, consumed, total int, label string) {
			p.mu.Lock()
			defer p.mu.Unlock()

			_, _ = fmt.Fprintf(p.progress, "\r\033[K%s %s",
				styles.DimStyle.Render(label),
				styles.DimStyle.Render(fmt.Sprintf("%d/%d", consumed, total)))
			p.progressOn = true
		},
	}
}

func (p *streamPrinter) clearProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearProgressLocked()
}

func (p *streamPrinter) clearProgressLocked() {
	if p.progressOn {
		_, _ = io.WriteString(p.progress, "\r\033[K")
		p.progressOn = false
	}
}

// endLine terminates streamed output with a newline.
func (p *streamPrinter) endLine() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wroteOutput {
		_, _ = io.WriteString(p.out, "\n")
		p.wroteOutput = false
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int.
}

func terminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 { //nolint:gosec // Fd fits in int.
		return w
	}

	return 80
}
