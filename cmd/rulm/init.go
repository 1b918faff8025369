package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/germanamz/rulm/cmd/rulm/internal/initwizard"
	"github.com/germanamz/rulm/pkg/config"
	"github.com/germanamz/rulm/pkg/rulmdir"
)

func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file interactively",
		Args:  cobra.NoArgs,
		// The config may not exist yet, so skip the shared setup.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(path)
			if err != nil {
				return err
			}

			base, err := initBase(target, force)
			if err != nil {
				return err
			}

			cfg, err := initwizard.Run(base)
			if err != nil {
				return err
			}

			if err := config.Save(target, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "file to write (default: the user config file)")
	cmd.Flags().BoolVar(&force, "force", false, "edit an existing file")

	return cmd
}

func initTarget(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	dir, err := rulmdir.User()
	if err != nil {
		return "", err
	}

	return dir.ConfigPath(), nil
}

// initBase returns the values the form starts from: the existing file when
// force is set, the defaults when there is no file.
func initBase(target string, force bool) (config.Config, error) {
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return config.Config{}, err
	}

	if !force {
		return config.Config{}, fmt.Errorf("%s already exists (use --force to edit it)", target)
	}

	return config.Load(target, nil)
}
