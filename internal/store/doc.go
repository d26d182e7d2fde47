// Package store provides the SQLite-backed operation trace log.
//
// Each Rewindable run under observation is a session. Every journal-changing
// operation becomes one row in operations:
//   - Identity: content-addressed id over (session, seq, op, arg, child, digest)
//   - Digest: snapshot digest of the entry the journal points at afterwards
//   - Payload: zstd-compressed canonical JSON of that snapshot (plus the full
//     history for load operations)
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Queries order
// by seq ASC, id ASC COLLATE BINARY so reads are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store is a diagnostic trace of one run. It does not persist entities
// across sessions.
package store
