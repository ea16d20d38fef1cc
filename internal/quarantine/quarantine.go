// Package quarantine is the failure sink for lines that cannot be ingested.
//
// Rejected lines are appended verbatim, with enough context to debug them
// later, to <quarantine_dir>/<YYYY-MM-DD>/<source file name>. Quarantine
// files are themselves valid JSONL and can be replayed once the producer is
// fixed. A per-day cap bounds disk usage during a schema-change storm; every
// rejection is still counted by the caller even when the cap stops writes.
package quarantine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"siphon/internal/logging"
)

// Record is one quarantined line as written to disk.
type Record struct {
	QuarantinedAtUTC string `json:"quarantined_at_utc"`
	SourceFile       string `json:"source_file"`
	LineNumber       int    `json:"line_number"`
	Reason           string `json:"reason"`
	RawText          string `json:"raw_text"`
}

// Writer appends rejection records under a quarantine root. Safe for
// concurrent use by the ingest workers.
type Writer struct {
	dir       string
	maxPerDay int
	logger    *slog.Logger

	mu        sync.Mutex
	written   map[string]int
	capLogged map[string]bool
}

// NewWriter creates a quarantine writer. maxPerDay <= 0 disables the cap.
func NewWriter(dir string, maxPerDay int, logger *slog.Logger) *Writer {
	return &Writer{
		dir:       dir,
		maxPerDay: maxPerDay,
		logger:    logging.NewComponentLogger(logger, "quarantine"),
		written:   make(map[string]int),
		capLogged: make(map[string]bool),
	}
}

// Record appends one rejected line to the day's quarantine file for its
// source. Once the day's cap is reached the record is dropped (the caller
// still counts it) and the breach is logged once for that day.
func (w *Writer) Record(day time.Time, sourceFile string, lineNo int, rawLine, reason string) error {
	dayKey := day.UTC().Format("2006-01-02")

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxPerDay > 0 && w.written[dayKey] >= w.maxPerDay {
		if !w.capLogged[dayKey] {
			w.capLogged[dayKey] = true
			w.logger.Warn("quarantine cap reached; further rejections counted but not written",
				logging.Args(
					logging.String("day", dayKey),
					logging.Int("cap", w.maxPerDay),
				)...)
		}
		return nil
	}

	dayDir := filepath.Join(w.dir, dayKey)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return fmt.Errorf("create quarantine dir: %w", err)
	}

	record := Record{
		QuarantinedAtUTC: time.Now().UTC().Format(time.RFC3339),
		SourceFile:       sourceFile,
		LineNumber:       lineNo,
		Reason:           reason,
		RawText:          rawLine,
	}
	contents, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode quarantine record: %w", err)
	}

	target := filepath.Join(dayDir, filepath.Base(sourceFile))
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open quarantine file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(contents, '\n')); err != nil {
		return fmt.Errorf("append quarantine record: %w", err)
	}

	w.written[dayKey]++
	return nil
}

// WrittenToday returns how many records were persisted for the given day.
func (w *Writer) WrittenToday(day time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written[day.UTC().Format("2006-01-02")]
}
