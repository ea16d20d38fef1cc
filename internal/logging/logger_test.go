package logging_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"siphon/internal/config"
	"siphon/internal/logging"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("ingest started", logging.Args(logging.Int("file_count", 3))...)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "ingest started" {
		t.Errorf("msg = %v", decoded["msg"])
	}
	if decoded["file_count"] != float64(3) {
		t.Errorf("file_count = %v", decoded["file_count"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should have been filtered at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn line missing")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logging.NewComponentLogger(base, "ingest").Info("hello")
	if !strings.Contains(buf.String(), `"component":"ingest"`) {
		t.Errorf("component attribute missing: %s", buf.String())
	}

	if logger := logging.NewComponentLogger(nil, "x"); logger == nil {
		t.Fatal("nil base must yield usable logger")
	}
}

func TestNewFromConfigKeepsConsoleOnStderrAndJSONInRunFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataRoot = t.TempDir()
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	oldStderr := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = oldStderr }()

	logger, runID, err := logging.NewFromConfig(&cfg)
	if err != nil {
		os.Stderr = oldStderr
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("run started")

	_ = w.Close()
	os.Stderr = oldStderr
	captured, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured stderr: %v", err)
	}

	stderrLine := strings.TrimSpace(string(captured))
	if strings.HasPrefix(stderrLine, "{") {
		t.Errorf("configured console format ignored; stderr got JSON: %s", stderrLine)
	}
	if !strings.Contains(stderrLine, "run started") {
		t.Errorf("stderr missing log line: %s", stderrLine)
	}

	runFile := filepath.Join(cfg.RunLogsDir(), "run-"+runID+".jsonl")
	data, err := os.ReadFile(runFile)
	if err != nil {
		t.Fatalf("run log file missing: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &decoded); err != nil {
		t.Fatalf("run log line is not JSON: %q: %v", data, err)
	}
	if decoded["msg"] != "run started" {
		t.Errorf("run log msg = %v", decoded["msg"])
	}
	if decoded["run_id"] != runID {
		t.Errorf("run log run_id = %v, want %s", decoded["run_id"], runID)
	}
}
