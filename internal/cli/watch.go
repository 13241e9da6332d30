package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/live"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Module   string
	Interval time.Duration
	Count    int
}

// SnapshotView is the JSON shape of one watch update.
type SnapshotView struct {
	Revision uint64      `json:"revision"`
	Query    string      `json:"query"`
	Events   []EventView `json:"events"`
	Error    string      `json:"error,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the history every time it changes",
		Long: `Open a live query over the history and print a fresh snapshot
after every change, until interrupted.

Changes made by other medinsight processes are picked up by polling the
database every --interval.

Examples:
  medinsight watch
  medinsight watch --module "Comprensión de Texto Clínico" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "only events from this module")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "how often to check for changes from other processes (0 disables)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many snapshots (0 = until interrupted)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	if opts.Count < 0 {
		return NewExitError(ExitCommandError, "--count must not be negative")
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	q := live.All()
	if opts.Module != "" {
		q = live.ByModule(opts.Module)
	}

	sub, err := s.ledger.Subscribe(ctx, q)
	if err != nil {
		return s.formatter.Fail(ExitFailure, "failed to subscribe", err)
	}
	defer sub.Close()
	s.logger.Debug("watching history", "subscription", sub.ID(), "query", q.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			s.logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var poll <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		poll = ticker.C
		if _, err := s.ledger.Poll(ctx); err != nil {
			s.logger.Warn("poll failed", "err", err)
		}
	}

	for seen := 0; opts.Count == 0 || seen < opts.Count; {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if err := printSnapshot(s, cmd, q, snap, opts.Verbose); err != nil {
				return err
			}
			seen++
		case <-poll:
			if _, err := s.ledger.Poll(ctx); err != nil {
				s.logger.Warn("poll failed", "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func printSnapshot(s *session, cmd *cobra.Command, q live.Query, snap live.Snapshot, verbose bool) error {
	if s.formatter.Format == "json" {
		view := SnapshotView{
			Revision: snap.Revision,
			Query:    q.String(),
			Events:   newEventViews(snap.Events),
		}
		if snap.Err != nil {
			view.Error = snap.Err.Error()
		}
		return s.formatter.Success(view)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "== revision %d: %d event(s), %s ==\n", snap.Revision, len(snap.Events), q)
	if snap.Err != nil {
		fmt.Fprintf(w, "history unavailable: %v\n", snap.Err)
	}
	renderEvents(w, snap.Events, s.cfg.Display, verbose)
	return nil
}
