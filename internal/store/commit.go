package store

import (
	"context"
	"fmt"
	"time"

	"siphon/internal/envelope"
)

const insertEventSQL = `
INSERT INTO silver_events (
    event_id, schema_version, event_type, occurred_at_utc, status,
    pipeline_name, pipeline_dcc,
    host_hostname, host_user, host_os,
    session_id, action_id,
    scope_show, scope_sequence, scope_shot, scope_asset, scope_department, scope_task,
    error_code, error_message,
    payload, metrics, duration_ms,
    source_file, source_line, ingested_at_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (event_id) DO NOTHING`

// CommitResult summarizes one file's commit.
type CommitResult struct {
	Inserted   int
	Duplicates int
}

// CommitFile atomically inserts a file's rows and records its manifest
// entry. Rows whose event_id already exists are silently skipped and counted
// as duplicates. Either both the rows and the manifest entry become visible,
// or neither does.
func (s *Store) CommitFile(ctx context.Context, rows []envelope.Row, entry ManifestEntry) (CommitResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CommitResult{}, fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())

	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return CommitResult{}, fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	var result CommitResult
	for i := range rows {
		row := &rows[i]
		res, err := stmt.ExecContext(ctx,
			row.EventID,
			row.SchemaVersion,
			row.EventType,
			formatTime(row.OccurredAtUTC),
			row.Status,
			row.PipelineName,
			nullableString(row.PipelineDCC),
			row.HostHostname,
			row.HostUser,
			nullableString(row.HostOS),
			row.SessionID,
			nullableString(row.ActionID),
			nullableString(row.ScopeShow),
			nullableString(row.ScopeSequence),
			nullableString(row.ScopeShot),
			nullableString(row.ScopeAsset),
			nullableString(row.ScopeDepartment),
			nullableString(row.ScopeTask),
			nullableString(row.ErrorCode),
			nullableString(row.ErrorMessage),
			row.Payload,
			row.Metrics,
			nullableInt64(row.DurationMS),
			row.SourceFile,
			row.SourceLine,
			now,
		)
		if err != nil {
			return CommitResult{}, fmt.Errorf("insert event %s: %w", row.EventID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return CommitResult{}, fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	if err := upsertManifestTx(ctx, tx, entry); err != nil {
		return CommitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return CommitResult{}, fmt.Errorf("commit file: %w", err)
	}
	return result, nil
}
