package store

import (
	"context"
	"fmt"

	"github.com/roach88/medinsight/internal/record"
)

const insertEventSQL = `
	INSERT INTO history_events
	(timestamp, module, action, input_summary, output_summary, details)
	VALUES (?, ?, ?, ?, ?, ?)
`

// Append inserts one event and returns it with its assigned ID.
// Any caller-supplied ID is ignored. A zero Timestamp is stamped with the
// store's clock; a non-zero one (the import path) is kept.
func (s *Store) Append(ctx context.Context, ev record.Event) (record.Event, error) {
	ev = s.prepare(ev)
	args, err := insertArgs(ev)
	if err != nil {
		return record.Event{}, fmt.Errorf("append: %w", err)
	}

	result, err := s.db.ExecContext(ctx, insertEventSQL, args...)
	if err != nil {
		return record.Event{}, unavailable("append", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return record.Event{}, unavailable("append: last insert id", err)
	}
	ev.ID = id

	return ev, nil
}

// AppendBatch inserts events in a single transaction and returns how many
// were written. With replace set, every existing row is deleted first inside
// the same transaction. On any error the transaction is rolled back and the
// ledger is left as it was.
func (s *Store) AppendBatch(ctx context.Context, events []record.Event, replace bool) (int, error) {
	prepared := make([][]any, len(events))
	for i, ev := range events {
		args, err := insertArgs(s.prepare(ev))
		if err != nil {
			return 0, fmt.Errorf("append batch: event %d: %w", i, err)
		}
		prepared[i] = args
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("append batch: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history_events`); err != nil {
			return 0, unavailable("append batch: clear", err)
		}
	}

	if len(prepared) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertEventSQL)
		if err != nil {
			return 0, unavailable("append batch: prepare", err)
		}
		defer stmt.Close()

		for i, args := range prepared {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return 0, unavailable(fmt.Sprintf("append batch: insert %d", i), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("append batch: commit", err)
	}

	return len(prepared), nil
}

// Delete removes the event with the given id.
// Returns false (and no error) when no such event exists.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM history_events WHERE id = ?`, id)
	if err != nil {
		return false, unavailable("delete", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("delete: rows affected", err)
	}
	return n > 0, nil
}

// Clear removes every event and returns how many were removed.
// The AUTOINCREMENT sequence is kept, so ids are never reused.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM history_events`)
	if err != nil {
		return 0, unavailable("clear", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("clear: rows affected", err)
	}
	return n, nil
}

// prepare stamps a missing timestamp and normalizes labels.
func (s *Store) prepare(ev record.Event) record.Event {
	ev.ID = 0
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.clock.Now()
	}
	ev.Timestamp = record.Millis(ev.Timestamp)
	ev.Module = record.NormalizeLabel(ev.Module)
	ev.Action = record.NormalizeLabel(ev.Action)
	ev.Details = record.CompactDetails(ev.Details)
	return ev
}

func insertArgs(ev record.Event) ([]any, error) {
	details, err := marshalDetails(ev.Details)
	if err != nil {
		return nil, err
	}
	return []any{
		ev.Timestamp.UnixMilli(),
		ev.Module,
		ev.Action,
		nullableText(ev.InputSummary),
		nullableText(ev.OutputSummary),
		details,
	}, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
