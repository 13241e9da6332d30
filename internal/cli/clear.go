package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history event",
		Long: `Irreversibly delete every history event. Export first if the
history may be needed again.

Example:
  medinsight export -o backup.json && medinsight clear --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm the irreversible clear")

	return cmd
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if !opts.Yes {
		return formatter.Fail(ExitCommandError, "refusing to clear history without --yes", nil)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if err := s.ledger.ClearHistory(ctx); err != nil {
		return s.formatter.Fail(ExitFailure, "failed to clear history", err)
	}

	if opts.Format == "json" {
		return s.formatter.Success(map[string]bool{"cleared": true})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}
