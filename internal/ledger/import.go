package ledger

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/medinsight/internal/live"
	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/telemetry"
)

//go:embed schema.cue
var schemaCUE string

// Mode selects how an import reconciles with existing history.
type Mode string

const (
	// ModeReplace clears the ledger, then appends the document.
	ModeReplace Mode = "replace"

	// ModeAppend adds the document after the existing history.
	ModeAppend Mode = "append"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeReplace, ModeAppend:
		return m, nil
	default:
		return "", fmt.Errorf("invalid import mode %q (want %q or %q)", s, ModeReplace, ModeAppend)
	}
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	Imported int  `json:"imported"`
	Mode     Mode `json:"mode"`
}

// documentInput is the decoded form of one validated import element.
// Any id is ignored.
type documentInput struct {
	Timestamp     json.RawMessage `json:"timestamp"`
	Module        string          `json:"module"`
	Action        string          `json:"action"`
	InputSummary  *string         `json:"inputSummary"`
	OutputSummary *string         `json:"outputSummary"`
	Details       json.RawMessage `json:"details"`
}

// Import validates doc in full and then writes it in one transaction.
// Nothing is written when validation fails, and a failed write leaves the
// ledger as it was.
func (l *Ledger) Import(ctx context.Context, doc []byte, mode Mode) (ImportResult, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Import", trace.WithAttributes(
		attribute.String("import.mode", string(mode)),
	))
	defer span.End()

	if mode != ModeReplace && mode != ModeAppend {
		err := fmt.Errorf("invalid import mode %q", mode)
		telemetry.RecordError(span, err)
		return ImportResult{}, err
	}

	inputs, err := validateDocument(doc)
	if err != nil {
		telemetry.RecordError(span, err)
		l.logger.Warn("import rejected", "mode", mode, "err", err)
		return ImportResult{}, err
	}

	events := l.toEvents(inputs)

	n, err := l.store.AppendBatch(ctx, events, mode == ModeReplace)
	if err != nil {
		err = &Error{Code: ErrCodeImportFailed, Message: "bulk write failed", Err: err}
		telemetry.RecordError(span, err)
		l.logger.Error("import failed", "mode", mode, "count", len(events), "err", err)
		return ImportResult{}, err
	}
	span.SetAttributes(attribute.Int("events.count", n))

	l.bus.Publish(live.Change{Kind: live.ChangeImport, Count: n})
	l.logger.Info("history imported", "mode", mode, "count", n)
	return ImportResult{Imported: n, Mode: mode}, nil
}

func (l *Ledger) toEvents(inputs []documentInput) []record.Event {
	now := l.clock.Now()
	events := make([]record.Event, len(inputs))
	for i, in := range inputs {
		ts, ok := record.ParseTimestamp(in.Timestamp)
		if !ok {
			l.logger.Warn("unparseable import timestamp, using current time",
				"element", i,
				"timestamp", string(in.Timestamp),
			)
			ts = now
		}
		events[i] = record.Event{
			Timestamp:     record.Millis(ts),
			Module:        record.NormalizeLabel(in.Module),
			Action:        record.NormalizeLabel(in.Action),
			InputSummary:  in.InputSummary,
			OutputSummary: in.OutputSummary,
			Details:       record.CompactDetails(in.Details),
		}
	}
	return events
}

// ValidateDocument parses doc and checks every element against the event
// schema without writing anything. It returns MalformedImport for
// unparseable input and InvalidSchema naming the first offending element
// otherwise.
func ValidateDocument(doc []byte) (int, error) {
	inputs, err := validateDocument(doc)
	return len(inputs), err
}

func validateDocument(doc []byte) ([]documentInput, error) {
	var raw any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, &Error{Code: ErrCodeMalformedImport, Message: "document is not valid JSON", Err: err}
	}

	elems, ok := raw.([]any)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalidSchema, Message: "document must be an array of events"}
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}
	eventDef := schema.LookupPath(cue.ParsePath("#Event"))

	for i, elem := range elems {
		v := eventDef.Unify(cctx.Encode(elem))
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, &Error{
				Code:    ErrCodeInvalidSchema,
				Message: fmt.Sprintf("element %d does not match the event schema", i),
				Details: map[string]string{"element": strconv.Itoa(i)},
				Err:     err,
			}
		}
	}

	var inputs []documentInput
	if err := json.Unmarshal(doc, &inputs); err != nil {
		return nil, &Error{Code: ErrCodeInvalidSchema, Message: "decode events", Err: err}
	}
	return inputs, nil
}
