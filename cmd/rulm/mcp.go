package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/germanamz/rulm/pkg/mcpserver"
	"github.com/germanamz/rulm/pkg/session"
	"github.com/germanamz/rulm/pkg/toolbox"
)

func newMCPCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the completion tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl := session.NewController(e.client, e.reg, e.sessionOptions()...)

			tb := toolbox.New(mcpserver.CompletionTools(ctrl, mcpserver.Defaults{
				Model:     e.cfg.Model,
				MaxTokens: e.cfg.DefaultMaxTokens,
			})...)

			srv := mcpserver.New("rulm", version, e.logger)
			srv.Register(tb.Tools()...)

			e.logger.Info("mcp: serving on stdio", "tools", len(tb.Tools()))

			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
