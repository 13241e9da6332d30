// Package store provides SQLite-backed durable storage for the activity ledger.
//
// The store holds a single table, history_events, with:
//   - id: INTEGER PRIMARY KEY AUTOINCREMENT (monotonic, never reused, even after Clear)
//   - timestamp: epoch milliseconds, UTC
//   - module, action: NFC-normalized labels
//   - input_summary, output_summary, details: nullable TEXT
//
// # Ordering
//
// Every multi-row read uses ORDER BY timestamp DESC, id DESC: most recent
// first, ties broken by insertion order. The (timestamp, id) index serves it.
//
// # Atomicity
//
// Append commits exactly one row. AppendBatch runs in a single transaction,
// including the delete of existing rows when replacing; any failure rolls the
// whole batch back.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks held by other processes up to 5 seconds
//   - one open connection: writes are serialized in-process
//
// Engine-level failures are wrapped with ErrStorageUnavailable.
package store
