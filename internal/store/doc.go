// Package store persists the canonical event table (silver_events) and the
// per-file ingest manifest in a single SQLite database.
//
// The two invariants the rest of the system leans on live here: at most one
// row per event_id ever exists (insert-if-absent on a unique key), and a
// manifest entry is only ever written in the same transaction as its file's
// rows, so a manifest entry without rows cannot be observed.
package store
