// Package record defines the activity ledger's entry types.
//
// This package contains value types and pure helpers only. Every other
// internal package imports record; record imports nothing internal.
//
// Key constraints:
//   - ID is assigned by the store, never by callers (zero until persisted)
//   - Timestamps are UTC with millisecond precision, the precision of the
//     export document format
//   - Module and Action labels are NFC-normalized on every write path
//   - Entries are immutable once appended; there is no update operation
package record
