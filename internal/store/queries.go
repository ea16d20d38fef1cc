package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"siphon/internal/envelope"
)

// EventCount returns the number of canonical rows.
func (s *Store) EventCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM silver_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// EventCountSince returns the number of rows that occurred at or after t.
func (s *Store) EventCountSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM silver_events WHERE occurred_at_utc >= ?`, formatTime(t)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events since: %w", err)
	}
	return count, nil
}

// LatestEventTime returns the most recent occurred_at_utc, with ok=false on
// an empty store.
func (s *Store) LatestEventTime(ctx context.Context) (time.Time, bool, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(occurred_at_utc) FROM silver_events`).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, fmt.Errorf("latest event time: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, false, nil
	}
	t, err := parseTimeString(raw.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse latest event time: %w", err)
	}
	return t, true, nil
}

// SchemaVersions returns the distinct schema_version values present with
// their row counts, newest-heavy first.
func (s *Store) SchemaVersions(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT schema_version, COUNT(1) FROM silver_events GROUP BY schema_version`)
	if err != nil {
		return nil, fmt.Errorf("schema versions: %w", err)
	}
	defer rows.Close()

	versions := make(map[string]int64)
	for rows.Next() {
		var version string
		var count int64
		if err := rows.Scan(&version, &count); err != nil {
			return nil, err
		}
		versions[version] = count
	}
	return versions, rows.Err()
}

const selectEventColumns = `
    event_id, schema_version, event_type, occurred_at_utc, status,
    pipeline_name, pipeline_dcc,
    host_hostname, host_user, host_os,
    session_id, action_id,
    scope_show, scope_sequence, scope_shot, scope_asset, scope_department, scope_task,
    error_code, error_message,
    payload, metrics, duration_ms,
    source_file, source_line`

// ForEachRow streams every canonical row in export order (event date, event
// type, event id) through fn. Used by the parquet export so the full table
// never has to sit in memory.
func (s *Store) ForEachRow(ctx context.Context, fn func(envelope.Row) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectEventColumns+`
         FROM silver_events
         ORDER BY date(occurred_at_utc), event_type, event_id`)
	if err != nil {
		return fmt.Errorf("query events for export: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanEventRow(rows)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanEventRow(scanner interface{ Scan(dest ...any) error }) (envelope.Row, error) {
	var (
		row         envelope.Row
		occurredRaw string
		pipelineDCC sql.NullString
		hostOS      sql.NullString
		actionID    sql.NullString
		show        sql.NullString
		sequence    sql.NullString
		shot        sql.NullString
		asset       sql.NullString
		department  sql.NullString
		task        sql.NullString
		errCode     sql.NullString
		errMessage  sql.NullString
		durationMS  sql.NullInt64
	)
	err := scanner.Scan(
		&row.EventID, &row.SchemaVersion, &row.EventType, &occurredRaw, &row.Status,
		&row.PipelineName, &pipelineDCC,
		&row.HostHostname, &row.HostUser, &hostOS,
		&row.SessionID, &actionID,
		&show, &sequence, &shot, &asset, &department, &task,
		&errCode, &errMessage,
		&row.Payload, &row.Metrics, &durationMS,
		&row.SourceFile, &row.SourceLine,
	)
	if err != nil {
		return envelope.Row{}, fmt.Errorf("scan event row: %w", err)
	}
	if row.OccurredAtUTC, err = parseTimeString(occurredRaw); err != nil {
		return envelope.Row{}, fmt.Errorf("parse occurred_at_utc: %w", err)
	}
	row.PipelineDCC = pipelineDCC.String
	row.HostOS = hostOS.String
	row.ActionID = actionID.String
	row.ScopeShow = show.String
	row.ScopeSequence = sequence.String
	row.ScopeShot = shot.String
	row.ScopeAsset = asset.String
	row.ScopeDepartment = department.String
	row.ScopeTask = task.String
	row.ErrorCode = errCode.String
	row.ErrorMessage = errMessage.String
	if durationMS.Valid {
		v := durationMS.Int64
		row.DurationMS = &v
	}
	return row, nil
}
