// Package ingest orchestrates one ingestion run: lock acquisition, file
// discovery, manifest filtering, streaming validation, and the atomic
// per-file commit into the canonical store.
//
// Files are independent units. Within a run they are distributed across a
// bounded worker pool; the only cross-file synchronization point is the
// event_id uniqueness constraint enforced by the store itself. A failure in
// one file aborts that file only, leaves no manifest entry, and the file is
// retried on the next run.
package ingest
