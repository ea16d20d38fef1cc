// Package envelope defines the telemetry event contract and its validation.
//
// One JSONL line holds one envelope. Validate turns a raw line into either a
// typed Envelope or a rejection reason; it never returns an error for bad
// input, so the per-line ingest loop needs no special branching to continue
// past a bad line. Flatten converts a validated envelope into the column
// layout of the silver_events table.
package envelope
