package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/medinsight/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))

	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a commented default configuration to --config (or the
default location). An existing file is kept unless --force is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			path := rootOpts.ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}

			if !force && fileExists(path) {
				return formatter.Fail(ExitCommandError, fmt.Sprintf("config file %s already exists (use --force to overwrite)", path), nil)
			}
			if err := config.WriteDefault(path); err != nil {
				return formatter.Fail(ExitCommandError, "failed to write config", &FileError{Code: ErrCodeWriteFailed, Path: path, Message: "cannot write", Err: err})
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]string{"path": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return formatter.Fail(ExitCommandError, "failed to load config", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return formatter.Fail(ExitFailure, "failed to render config", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
