package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/ledger"
)

// DeleteResult is the JSON payload of the delete command.
type DeleteResult struct {
	ID      int64      `json:"id"`
	Deleted bool       `json:"deleted"`
	Event   *EventView `json:"event,omitempty"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history event",
		Long: `Delete one history event by id. Deleting an id that does not
exist is not an error.

Example:
  medinsight delete 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return formatter.Fail(ExitCommandError, fmt.Sprintf("invalid event id %q", arg), nil)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	// Read first so the output can say what was removed.
	ev, err := s.ledger.Event(ctx, id)
	if err != nil && !ledger.IsNotFound(err) {
		return s.formatter.Fail(ExitFailure, "failed to read event", err)
	}
	found := err == nil

	deleted, err := s.ledger.DeleteHistoryEvent(ctx, id)
	if err != nil {
		return s.formatter.Fail(ExitFailure, "failed to delete event", err)
	}

	if opts.Format == "json" {
		res := DeleteResult{ID: id, Deleted: deleted}
		if deleted && found {
			view := newEventView(ev)
			res.Event = &view
		}
		return s.formatter.Success(res)
	}
	switch {
	case deleted && found:
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted event #%d (%s: %s)\n", id, ev.Module, ev.Action)
	case deleted:
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted event #%d\n", id)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "No event #%d; nothing deleted\n", id)
	}
	return nil
}
