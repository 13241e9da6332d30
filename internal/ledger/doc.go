// Package ledger is the activity ledger's public surface: the mutation API
// producers call, the live queries views subscribe to, and the import/export
// engine.
//
// # Failure policy
//
// Recording is a side channel. AddHistoryEvent never fails its caller: a
// storage error is logged and swallowed so a producer's primary workflow is
// never blocked by history. Every user-initiated operation (delete, clear,
// export, import) surfaces its failure as an *Error with a Code.
//
// # Import
//
// Import is two-phase. The document is parsed and every element checked
// against the embedded CUE schema before anything is written; one bad
// element rejects the whole document. The accepted elements are then written
// in one transaction (after clearing, in replace mode). A failed write rolls
// the transaction back, so ImportFailed leaves the ledger unchanged.
//
// # Process-wide handle
//
// Default lazily opens one Ledger for the process and keeps it open.
// ResetDefault closes and forgets it, for test isolation.
package ledger
