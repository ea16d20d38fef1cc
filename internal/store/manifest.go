package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ManifestEntry records one fully ingested file. Presence of an entry whose
// (mtime, size) matches a candidate's current fingerprint is the sole source
// of truth for "already ingested".
type ManifestEntry struct {
	FilePath      string
	FileMtime     time.Time
	FileSize      int64
	IngestedAtUTC time.Time
	EventCount    int
	ErrorCount    int
}

// Matches reports whether the entry covers a file with the given fingerprint.
func (e *ManifestEntry) Matches(mtime time.Time, size int64) bool {
	return e != nil && e.FileSize == size && e.FileMtime.Equal(mtime)
}

// LookupManifest returns the manifest entry for a file path, or nil if the
// file has never been ingested.
func (s *Store) LookupManifest(ctx context.Context, filePath string) (*ManifestEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT file_path, file_mtime, file_size, ingested_at_utc, event_count, error_count
         FROM ingest_manifest WHERE file_path = ?`, filePath)

	var (
		entry     ManifestEntry
		mtimeRaw  string
		ingestRaw string
	)
	err := row.Scan(&entry.FilePath, &mtimeRaw, &entry.FileSize, &ingestRaw, &entry.EventCount, &entry.ErrorCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup manifest: %w", err)
	}
	if entry.FileMtime, err = parseTimeString(mtimeRaw); err != nil {
		return nil, fmt.Errorf("parse manifest mtime: %w", err)
	}
	if entry.IngestedAtUTC, err = parseTimeString(ingestRaw); err != nil {
		return nil, fmt.Errorf("parse manifest ingested_at: %w", err)
	}
	return &entry, nil
}

// ManifestTotals aggregates the manifest for diagnostics.
type ManifestTotals struct {
	Files      int
	EventCount int64
	ErrorCount int64
}

// ManifestSummary returns file and event counters across the whole manifest.
func (s *Store) ManifestSummary(ctx context.Context) (ManifestTotals, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(event_count), 0), COALESCE(SUM(error_count), 0) FROM ingest_manifest`)
	var totals ManifestTotals
	if err := row.Scan(&totals.Files, &totals.EventCount, &totals.ErrorCount); err != nil {
		return ManifestTotals{}, fmt.Errorf("manifest summary: %w", err)
	}
	return totals, nil
}

func upsertManifestTx(ctx context.Context, tx *sql.Tx, entry ManifestEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_manifest
            (file_path, file_mtime, file_size, ingested_at_utc, event_count, error_count)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (file_path) DO UPDATE SET
            file_mtime      = excluded.file_mtime,
            file_size       = excluded.file_size,
            ingested_at_utc = excluded.ingested_at_utc,
            event_count     = excluded.event_count,
            error_count     = excluded.error_count`,
		entry.FilePath,
		formatTime(entry.FileMtime),
		entry.FileSize,
		formatTime(entry.IngestedAtUTC),
		entry.EventCount,
		entry.ErrorCount,
	)
	if err != nil {
		return fmt.Errorf("upsert manifest: %w", err)
	}
	return nil
}
