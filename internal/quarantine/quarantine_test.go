package quarantine_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"siphon/internal/logging"
	"siphon/internal/quarantine"
)

var day = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestRecordAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	w := quarantine.NewWriter(dir, 10, logging.NewNop())

	source := "/raw/samus/rees23/events.jsonl"
	if err := w.Record(day, source, 3, "{broken", "parse_error"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := w.Record(day, source, 9, `{"event_id":""}`, "missing_field:event_id"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	target := filepath.Join(dir, "2026-03-01", "events.jsonl")
	contents, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read quarantine file: %v", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	var records []quarantine.Record
	for scanner.Scan() {
		var record quarantine.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("quarantine line is not valid JSON: %v", err)
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].LineNumber != 3 || records[0].Reason != "parse_error" || records[0].RawText != "{broken" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].SourceFile != source {
		t.Errorf("source_file = %q", records[1].SourceFile)
	}
}

func TestCapStopsWritesButLogsOnce(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	w := quarantine.NewWriter(dir, 2, logger)

	for i := 1; i <= 5; i++ {
		if err := w.Record(day, "/raw/h/u/f.jsonl", i, "bad", "parse_error"); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	if got := w.WrittenToday(day); got != 2 {
		t.Errorf("WrittenToday = %d, want cap of 2", got)
	}

	contents, err := os.ReadFile(filepath.Join(dir, "2026-03-01", "f.jsonl"))
	if err != nil {
		t.Fatalf("read quarantine file: %v", err)
	}
	if lines := strings.Count(string(contents), "\n"); lines != 2 {
		t.Errorf("persisted lines = %d, want 2", lines)
	}

	if warns := strings.Count(buf.String(), "quarantine cap reached"); warns != 1 {
		t.Errorf("cap warning logged %d times, want exactly once", warns)
	}
}

func TestCapIsPerDay(t *testing.T) {
	dir := t.TempDir()
	w := quarantine.NewWriter(dir, 1, logging.NewNop())

	nextDay := day.Add(24 * time.Hour)
	_ = w.Record(day, "/raw/h/u/f.jsonl", 1, "bad", "parse_error")
	_ = w.Record(day, "/raw/h/u/f.jsonl", 2, "bad", "parse_error")
	_ = w.Record(nextDay, "/raw/h/u/f.jsonl", 3, "bad", "parse_error")

	if got := w.WrittenToday(day); got != 1 {
		t.Errorf("day one written = %d, want 1", got)
	}
	if got := w.WrittenToday(nextDay); got != 1 {
		t.Errorf("day two written = %d, want 1 (cap resets per day)", got)
	}
}

func TestZeroCapMeansUnlimited(t *testing.T) {
	dir := t.TempDir()
	w := quarantine.NewWriter(dir, 0, logging.NewNop())
	for i := 0; i < 20; i++ {
		if err := w.Record(day, "/raw/h/u/f.jsonl", i, "bad", "parse_error"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if got := w.WrittenToday(day); got != 20 {
		t.Errorf("written = %d, want 20", got)
	}
}
