// Package store provides SQLite-backed history of verification runs.
//
// Each executed scenario is recorded as one run plus one row per diagnostic:
//   - Runs: scenario, dialect, catalog and report fingerprints, pass flag, counts
//   - Diagnostics: every verification finding and build failure, in report order
//
// # Identity and Time
//
// Run IDs are UUIDv7 by default and timestamps come from the wall clock. Both
// are injectable (WithIDGenerator, WithClock) so tests record reproducible
// histories.
//
// # Deterministic Query Results
//
// Listings order by the insertion sequence, never by timestamp, so runs
// recorded within the same clock tick keep a stable order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
