package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/record"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Module  string
	Action  string
	Input   string
	Output  string
	Details string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a history event",
		Long: `Record a history event the way an analysis module does after a
successful run. The event is stamped with the current time.

Examples:
  medinsight record --module "Análisis de Imágenes Médicas" --action "Imagen Analizada" \
    --input "radiografia-torax.png" --output "Sin hallazgos relevantes"
  medinsight record --module "Comprensión de Texto Clínico" --action "Notas Resumidas" \
    --details '{"tags":["follow-up"]}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "originating module label (required)")
	_ = cmd.MarkFlagRequired("module")
	cmd.Flags().StringVar(&opts.Action, "action", "", "action label (required)")
	_ = cmd.MarkFlagRequired("action")
	cmd.Flags().StringVar(&opts.Input, "input", "", "summary of the input")
	cmd.Flags().StringVar(&opts.Output, "output", "", "summary of the output")
	cmd.Flags().StringVar(&opts.Details, "details", "", "structured payload as JSON")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if strings.TrimSpace(opts.Module) == "" || strings.TrimSpace(opts.Action) == "" {
		return formatter.Fail(ExitCommandError, "--module and --action must not be blank", nil)
	}

	var details json.RawMessage
	if opts.Details != "" {
		if !json.Valid([]byte(opts.Details)) {
			return formatter.Fail(ExitCommandError, "invalid --details: not valid JSON", nil)
		}
		details = json.RawMessage(opts.Details)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	ev, err := s.ledger.Append(ctx, record.Draft{
		Module:        opts.Module,
		Action:        opts.Action,
		InputSummary:  record.Text(opts.Input),
		OutputSummary: record.Text(opts.Output),
		Details:       details,
	})
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to record event", err)
	}

	if opts.Format == "json" {
		return formatter.Success(newEventView(ev))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded event #%d: %s / %s\n", ev.ID, ev.Module, ev.Action)
	return nil
}
