// Package live provides push-based live queries over the activity ledger.
//
// A Bus sits between the mutation path and any number of readers. After
// every committed mutation the writer calls Publish; each Subscription whose
// Query is affected re-runs its read against the store and delivers a fresh
// Snapshot on its Updates channel. Commits made by other processes are only
// seen when the owner publishes ChangeExternal after detecting them.
//
// # Delivery
//
// Updates channels hold one snapshot. When a consumer falls behind, the
// undelivered snapshot is replaced by the newer one (latest wins), so a slow
// consumer never blocks writers and always converges on the current state.
// Snapshot.Revision increases with every publish and lets consumers detect
// skipped intermediate states.
//
// # Failure model
//
// A failed re-read degrades to an empty snapshot with Err set; it is logged
// and never blocks the consumer or the writer.
//
// # Lifecycle
//
// A subscription ends when Close is called, when its subscribe context is
// cancelled, or when the Bus is closed. Its Updates channel is then closed.
package live
