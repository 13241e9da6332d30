package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/live"
	"github.com/roach88/medinsight/internal/record"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Module  string
	Limit   int
	Modules bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history events, newest first",
		Long: `List history events, most recent first.

Input summaries are cut to display.input_width characters and output
summaries to display.output_width; missing summaries show as N/A.

Examples:
  medinsight list
  medinsight list --module "Diagnóstico Inteligente" --limit 10
  medinsight list --modules
  medinsight list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "only events from this module")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many events (0 = all)")
	cmd.Flags().BoolVar(&opts.Modules, "modules", false, "list the modules that have recorded events instead")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if opts.Modules {
		return listModules(s, cmd)
	}

	var events []record.Event
	if opts.Module != "" {
		s.formatter.VerboseLog("Listing %s", live.ByModule(opts.Module))
		events = s.ledger.HistoryByModule(ctx, opts.Module)
	} else {
		s.formatter.VerboseLog("Listing %s", live.All())
		events = s.ledger.History(ctx)
	}
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}

	if opts.Format == "json" {
		return s.formatter.Success(newEventViews(events))
	}
	renderEvents(cmd.OutOrStdout(), events, s.cfg.Display, opts.Verbose)
	return nil
}

func listModules(s *session, cmd *cobra.Command) error {
	modules, err := s.ledger.Modules(commandContext(cmd))
	if err != nil {
		return s.formatter.Fail(ExitFailure, "failed to list modules", err)
	}
	if s.formatter.Format == "json" {
		return s.formatter.Success(modules)
	}
	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history events.")
		return nil
	}
	for _, m := range modules {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]\n", m, record.CategoryOf(m))
	}
	return nil
}
