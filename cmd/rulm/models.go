package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/germanamz/rulm/pkg/registry"
)

func newModelsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printModels(cmd.OutOrStdout(), e.reg, e.cfg.Model)
		},
	}
}

// printModels writes one row per model in registration order and marks the
// default.
func printModels(w io.Writer, reg *registry.Registry, def string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tTEMPERATURE\tMAX TOKENS")

	for _, m := range reg.Models() {
		mark := " "
		if m.Name == def {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%.1f\t%d\n", mark, m.Name, m.Temperature, m.MaxTokens)
	}

	return tw.Flush()
}
