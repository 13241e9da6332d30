package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/ledger"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportResult is the JSON payload of export -o.
type ExportResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history as a JSON document",
		Long: `Export every history event, newest first, as an indented JSON
array. Without -o the document is written to stdout.

An empty history is refused so a backup is never silently empty.

Examples:
  medinsight export -o medinsight-history.json
  medinsight export > backup.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the document to this file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	// The document itself is the output when writing to stdout.
	if opts.Output == "" || opts.Output == "-" {
		if err := s.ledger.ExportTo(ctx, cmd.OutOrStdout()); err != nil {
			if ledger.CodeOf(err) != "" {
				return s.formatter.Fail(ExitFailure, "failed to export history", err)
			}
			return s.formatter.Fail(ExitCommandError, "failed to write export", err)
		}
		return nil
	}

	data, err := s.ledger.Export(ctx)
	if err != nil {
		return s.formatter.Fail(ExitFailure, "failed to export history", err)
	}
	if err := writeDocument(opts.Output, data, nil); err != nil {
		return s.formatter.Fail(ExitCommandError, "failed to write export", err)
	}
	s.formatter.VerboseLog("Wrote %d bytes", len(data))

	if opts.Format == "json" {
		return s.formatter.Success(ExportResult{Path: opts.Output, Bytes: len(data)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", opts.Output)
	return nil
}
