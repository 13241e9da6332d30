package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/medinsight/internal/record"
)

const selectEventColumns = `
	SELECT id, timestamp, module, action, input_summary, output_summary, details
	FROM history_events
`

// ReadAll returns every event, most recent first.
// Ordering: ORDER BY timestamp DESC, id DESC.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ReadAll(ctx context.Context) ([]record.Event, error) {
	return s.queryEvents(ctx, "read all", selectEventColumns+`
		ORDER BY timestamp DESC, id DESC
	`)
}

// ReadByModule returns every event recorded by module, most recent first.
// The module label is normalized before matching.
func (s *Store) ReadByModule(ctx context.Context, module string) ([]record.Event, error) {
	return s.queryEvents(ctx, "read by module", selectEventColumns+`
		WHERE module = ?
		ORDER BY timestamp DESC, id DESC
	`, record.NormalizeLabel(module))
}

// Read retrieves a single event by id.
// Returns ErrNotFound if no such event exists.
func (s *Store) Read(ctx context.Context, id int64) (record.Event, error) {
	row := s.db.QueryRowContext(ctx, selectEventColumns+`WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Event{}, fmt.Errorf("read %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return record.Event{}, unavailable("read", err)
	}
	return ev, nil
}

// Count returns the number of events in the ledger.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_events`).Scan(&n); err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// Modules returns the distinct module labels present, sorted.
func (s *Store) Modules(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT module FROM history_events ORDER BY module COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, unavailable("modules", err)
	}
	defer rows.Close()

	modules := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, unavailable("modules: scan", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("modules: iterate", err)
	}
	return modules, nil
}

func (s *Store) queryEvents(ctx context.Context, op, query string, args ...any) ([]record.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	events := []record.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, unavailable(op+": scan", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(op+": iterate", err)
	}

	return events, nil
}

// scanEvent scans one row in selectEventColumns order.
func scanEvent(row rowScanner) (record.Event, error) {
	var (
		ev            record.Event
		ms            int64
		input, output sql.NullString
		details       sql.NullString
	)
	if err := row.Scan(&ev.ID, &ms, &ev.Module, &ev.Action, &input, &output, &details); err != nil {
		return record.Event{}, err
	}
	ev.Timestamp = record.FromUnixMilli(ms)
	ev.InputSummary = textPtr(input)
	ev.OutputSummary = textPtr(output)
	ev.Details = unmarshalDetails(details)
	return ev, nil
}
