// Package export materializes the canonical store as Hive-partitioned
// parquet under <silver>/silver_events/event_date=.../event_type=.../.
//
// The export is a full rebuild into a staging directory followed by a rename,
// so readers never observe a half-written dataset. Rows arrive from the store
// already ordered by (event_date, event_type, event_id), which lets each
// partition be written by exactly one sequential writer.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"siphon/internal/envelope"
	"siphon/internal/logging"
	"siphon/internal/store"
)

// DatasetDir is the dataset directory name inside the silver root.
const DatasetDir = "silver_events"

// partFile is the single data file per partition; the rebuild is serial so
// there is never a second part.
const partFile = "data_0.parquet"

// eventRecord is the parquet projection of one canonical event.
type eventRecord struct {
	EventID       string `parquet:"event_id"`
	SchemaVersion string `parquet:"schema_version"`
	EventType     string `parquet:"event_type"`
	OccurredAtUTC string `parquet:"occurred_at_utc"`
	Status        string `parquet:"status"`

	PipelineName string `parquet:"pipeline_name"`
	PipelineDCC  string `parquet:"pipeline_dcc"`

	HostHostname string `parquet:"host_hostname"`
	HostUser     string `parquet:"host_user"`
	HostOS       string `parquet:"host_os"`

	SessionID string `parquet:"session_id"`
	ActionID  string `parquet:"action_id"`

	ScopeShow       string `parquet:"scope_show"`
	ScopeSequence   string `parquet:"scope_sequence"`
	ScopeShot       string `parquet:"scope_shot"`
	ScopeAsset      string `parquet:"scope_asset"`
	ScopeDepartment string `parquet:"scope_department"`
	ScopeTask       string `parquet:"scope_task"`

	ErrorCode    string `parquet:"error_code"`
	ErrorMessage string `parquet:"error_message"`

	Payload string `parquet:"payload"`
	Metrics string `parquet:"metrics"`

	DurationMS *int64 `parquet:"duration_ms,optional"`

	SourceFile string `parquet:"source_file"`
	SourceLine int32  `parquet:"source_line"`
}

func toRecord(row envelope.Row) eventRecord {
	return eventRecord{
		EventID:         row.EventID,
		SchemaVersion:   row.SchemaVersion,
		EventType:       row.EventType,
		OccurredAtUTC:   row.OccurredAtUTC.UTC().Format(time.RFC3339Nano),
		Status:          row.Status,
		PipelineName:    row.PipelineName,
		PipelineDCC:     row.PipelineDCC,
		HostHostname:    row.HostHostname,
		HostUser:        row.HostUser,
		HostOS:          row.HostOS,
		SessionID:       row.SessionID,
		ActionID:        row.ActionID,
		ScopeShow:       row.ScopeShow,
		ScopeSequence:   row.ScopeSequence,
		ScopeShot:       row.ScopeShot,
		ScopeAsset:      row.ScopeAsset,
		ScopeDepartment: row.ScopeDepartment,
		ScopeTask:       row.ScopeTask,
		ErrorCode:       row.ErrorCode,
		ErrorMessage:    row.ErrorMessage,
		Payload:         row.Payload,
		Metrics:         row.Metrics,
		DurationMS:      row.DurationMS,
		SourceFile:      row.SourceFile,
		SourceLine:      int32(row.SourceLine),
	}
}

// partitionKey identifies one (event_date, event_type) leaf directory.
type partitionKey struct {
	date      string
	eventType string
}

func (k partitionKey) dir(root string) string {
	return filepath.Join(root,
		fmt.Sprintf("event_date=%s", k.date),
		fmt.Sprintf("event_type=%s", k.eventType))
}

// Rebuild replaces the parquet dataset under silverDir with the current
// contents of the store. It returns the number of rows exported.
func Rebuild(ctx context.Context, st *store.Store, silverDir string, logger *slog.Logger) (int64, error) {
	log := logging.NewComponentLogger(logger, "export")

	finalDir := filepath.Join(silverDir, DatasetDir)
	stagingDir := finalDir + fmt.Sprintf(".staging-%d", os.Getpid())
	if err := os.RemoveAll(stagingDir); err != nil {
		return 0, fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(stagingDir) }()

	var (
		rows       int64
		partitions int
		current    partitionKey
		writer     *parquet.GenericWriter[eventRecord]
		file       *os.File
	)

	closeCurrent := func() error {
		if writer == nil {
			return nil
		}
		if err := writer.Close(); err != nil {
			_ = file.Close()
			return fmt.Errorf("close parquet writer for %s/%s: %w", current.date, current.eventType, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close parquet file for %s/%s: %w", current.date, current.eventType, err)
		}
		writer = nil
		file = nil
		return nil
	}

	err := st.ForEachRow(ctx, func(row envelope.Row) error {
		key := partitionKey{
			date:      row.OccurredAtUTC.UTC().Format("2006-01-02"),
			eventType: row.EventType,
		}
		if writer == nil || key != current {
			if err := closeCurrent(); err != nil {
				return err
			}
			dir := key.dir(stagingDir)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create partition dir: %w", err)
			}
			handle, err := os.Create(filepath.Join(dir, partFile))
			if err != nil {
				return fmt.Errorf("create parquet file: %w", err)
			}
			file = handle
			writer = parquet.NewGenericWriter[eventRecord](handle)
			current = key
			partitions++
		}
		if _, err := writer.Write([]eventRecord{toRecord(row)}); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
		rows++
		return nil
	})
	if err != nil {
		_ = closeCurrent()
		return 0, err
	}
	if err := closeCurrent(); err != nil {
		return 0, err
	}

	// Swap the staged dataset in. The brief window between remove and rename
	// is acceptable for a batch dataset rebuilt by a single writer.
	if err := os.RemoveAll(finalDir); err != nil {
		return 0, fmt.Errorf("remove previous dataset: %w", err)
	}
	if err := os.Rename(stagingDir, finalDir); err != nil {
		return 0, fmt.Errorf("activate dataset: %w", err)
	}

	log.Info("dataset rebuilt",
		logging.Args(
			logging.Int64("rows", rows),
			logging.Int("partitions", partitions),
			logging.String("path", finalDir),
		)...)
	return rows, nil
}
