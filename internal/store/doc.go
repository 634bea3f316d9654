// Package store provides the Record Store for Eternal proposals.
//
// All proposals live under a single key ("eternal_proposals") as one JSON
// array. Every save reads the whole array, appends and writes the whole array
// back; every read parses the whole array. Record counts are expected to stay
// small, so the O(n) rewrite is accepted.
//
// # Backends
//
// The storage medium is injected through the Backend interface:
//   - MemoryBackend: map-backed, for tests
//   - SQLiteBackend: a kv table in a SQLite file
//
// # Failure Modes
//
//   - Missing or empty key: no records
//   - Unparseable value: ListAll reports no records and logs a warning;
//     Load returns ErrCorrupt; Save refuses to overwrite and returns ErrCorrupt
//   - Unknown id: GetByID returns ErrNotFound
//   - Id already stored: Save returns ErrDuplicateID
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// A Store serializes its own read-modify-write cycles. Two processes saving
// to the same database at once still race: the last full write wins.
package store
