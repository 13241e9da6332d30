package cli

import (
	"fmt"
	"io"

	"github.com/roach88/medinsight/internal/config"
	"github.com/roach88/medinsight/internal/record"
)

// DisplayLayout is how history entries show their timestamp.
const DisplayLayout = "02 Jan 2006, 15:04:05"

// EventView is the JSON shape of a history entry in command output.
type EventView struct {
	ID            int64           `json:"id"`
	Timestamp     string          `json:"timestamp"`
	Module        string          `json:"module"`
	Category      record.Category `json:"category"`
	Action        string          `json:"action"`
	InputSummary  *string         `json:"inputSummary,omitempty"`
	OutputSummary *string         `json:"outputSummary,omitempty"`
	Details       any             `json:"details,omitempty"`
}

func newEventView(ev record.Event) EventView {
	v := EventView{
		ID:            ev.ID,
		Timestamp:     record.FormatTimestamp(ev.Timestamp),
		Module:        ev.Module,
		Category:      record.CategoryOf(ev.Module),
		Action:        ev.Action,
		InputSummary:  ev.InputSummary,
		OutputSummary: ev.OutputSummary,
	}
	if len(ev.Details) > 0 {
		v.Details = ev.Details
	}
	return v
}

func newEventViews(events []record.Event) []EventView {
	views := make([]EventView, len(events))
	for i, ev := range events {
		views[i] = newEventView(ev)
	}
	return views
}

// renderEvent writes one history entry as a card.
func renderEvent(w io.Writer, ev record.Event, d config.DisplayConfig, verbose bool) {
	fmt.Fprintf(w, "#%d  %s  [%s] %s\n",
		ev.ID,
		ev.Timestamp.Local().Format(DisplayLayout),
		record.CategoryOf(ev.Module),
		ev.Module,
	)
	fmt.Fprintf(w, "    %s\n", ev.Action)
	fmt.Fprintf(w, "    Input:  %s\n", record.Truncate(record.Deref(ev.InputSummary), d.InputWidth))
	fmt.Fprintf(w, "    Output: %s\n", record.Truncate(record.Deref(ev.OutputSummary), d.OutputWidth))
	if verbose && len(ev.Details) > 0 {
		fmt.Fprintf(w, "    Details: %s\n", ev.Details)
	}
}

// renderEvents writes every entry, or a placeholder when there are none.
func renderEvents(w io.Writer, events []record.Event, d config.DisplayConfig, verbose bool) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No history events.")
		return
	}
	for i, ev := range events {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderEvent(w, ev, d, verbose)
	}
}
