package record

import (
	"bytes"
	"encoding/json"
	"time"
)

// Event is one immutable ledger entry describing a user-triggered workflow action.
type Event struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Module        string          `json:"module"`
	Action        string          `json:"action"`
	InputSummary  *string         `json:"inputSummary,omitempty"`
	OutputSummary *string         `json:"outputSummary,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// Draft is the partial record producers hand to the ledger.
// The store assigns ID and the ledger assigns Timestamp.
type Draft struct {
	Module        string
	Action        string
	InputSummary  *string
	OutputSummary *string
	Details       json.RawMessage
}

// Stamp turns a draft into an unpersisted Event recorded at ts.
// Labels are normalized and details compacted.
func (d Draft) Stamp(ts time.Time) Event {
	return Event{
		Timestamp:     Millis(ts),
		Module:        NormalizeLabel(d.Module),
		Action:        NormalizeLabel(d.Action),
		InputSummary:  d.InputSummary,
		OutputSummary: d.OutputSummary,
		Details:       CompactDetails(d.Details),
	}
}

// Text returns a pointer to s, or nil when s is empty.
// Producers use it to fill the optional summary fields.
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CompactDetails strips insignificant whitespace from a details payload.
// Empty input and JSON null both collapse to nil (absent). Invalid JSON is
// returned unchanged so the caller's encoder reports it.
func CompactDetails(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}
