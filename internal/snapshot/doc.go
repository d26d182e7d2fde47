// Package snapshot provides the plain value model captured by the rewind engine.
//
// This package contains data types only. Every other internal package imports
// snapshot; snapshot imports nothing internal.
//
// Key design constraints:
//   - Values form a closed set of kinds (null, bool, int, float, string, list,
//     set, object). Anything else is rejected at conversion time.
//   - Equality is structural and cycle-safe; see Equal.
//   - Canonical JSON (RFC 8785 key order, NFC strings, sorted set members) is the
//     ONLY serialization used for digests.
//   - A Snapshot is framework-free: it can be handed to any persistence or
//     transport layer as-is.
package snapshot
