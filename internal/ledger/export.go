package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/telemetry"
)

// DocumentEvent is one element of an export document.
type DocumentEvent struct {
	ID            int64           `json:"id"`
	Timestamp     string          `json:"timestamp"`
	Module        string          `json:"module"`
	Action        string          `json:"action"`
	InputSummary  *string         `json:"inputSummary,omitempty"`
	OutputSummary *string         `json:"outputSummary,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// ToDocument converts events, in the given order, to document elements.
func ToDocument(events []record.Event) []DocumentEvent {
	doc := make([]DocumentEvent, len(events))
	for i, ev := range events {
		doc[i] = DocumentEvent{
			ID:            ev.ID,
			Timestamp:     record.FormatTimestamp(ev.Timestamp),
			Module:        ev.Module,
			Action:        ev.Action,
			InputSummary:  ev.InputSummary,
			OutputSummary: ev.OutputSummary,
			Details:       ev.Details,
		}
	}
	return doc
}

// EncodeDocument renders events as an indented JSON array followed by a
// newline.
func EncodeDocument(events []record.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(events)); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Export renders the whole ledger, most recent first.
// Fails with EmptyLedger when there is nothing to export.
func (l *Ledger) Export(ctx context.Context) ([]byte, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Export")
	defer span.End()

	events, err := l.store.ReadAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, newStorageError("export", err)
	}
	if len(events) == 0 {
		err := &Error{Code: ErrCodeEmptyLedger, Message: "no history events to export"}
		telemetry.RecordError(span, err)
		return nil, err
	}

	data, err := EncodeDocument(events)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.count", len(events)))

	l.logger.Info("history exported", "count", len(events))
	return data, nil
}

// ExportTo writes the export document to w.
func (l *Ledger) ExportTo(ctx context.Context, w io.Writer) error {
	data, err := l.Export(ctx)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
