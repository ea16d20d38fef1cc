package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// EventLine renders one valid schema v1.0 envelope as a JSONL line. The
// timestamp defaults to a fixed production date so tests stay deterministic.
func EventLine(eventID, eventType string, opts ...LineOption) string {
	line := &lineBuilder{
		eventID:    eventID,
		eventType:  eventType,
		occurredAt: time.Date(2026, 3, 1, 2, 41, 55, 0, time.UTC),
		status:     "success",
		user:       "rees23",
		hostname:   "samus.cs.byu.edu",
		metrics:    `{"duration_ms": 1294}`,
	}
	for _, opt := range opts {
		opt(line)
	}

	parts := []string{
		`"schema_version": "1.0"`,
		fmt.Sprintf(`"event_id": %q`, line.eventID),
		fmt.Sprintf(`"event_type": %q`, line.eventType),
		fmt.Sprintf(`"occurred_at_utc": %q`, line.occurredAt.Format(time.RFC3339)),
		fmt.Sprintf(`"status": %q`, line.status),
		`"pipeline": {"name": "sandwich-pipeline", "dcc": "maya"}`,
		fmt.Sprintf(`"host": {"hostname": %q, "user": %q, "os": "Linux"}`, line.hostname, line.user),
		fmt.Sprintf(`"session": {"session_id": "sess-%s"}`, line.eventID),
		fmt.Sprintf(`"metrics": %s`, line.metrics),
	}
	if line.status == "error" {
		parts = append(parts, `"error": {"code": "E1", "message": "boom"}`)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type lineBuilder struct {
	eventID    string
	eventType  string
	occurredAt time.Time
	status     string
	user       string
	hostname   string
	metrics    string
}

// LineOption customizes a generated event line.
type LineOption func(*lineBuilder)

// WithOccurredAt sets the event timestamp.
func WithOccurredAt(t time.Time) LineOption {
	return func(b *lineBuilder) { b.occurredAt = t }
}

// WithStatus sets the event status; "error" also attaches an error detail.
func WithStatus(status string) LineOption {
	return func(b *lineBuilder) { b.status = status }
}

// WithUser sets the emitting user.
func WithUser(user string) LineOption {
	return func(b *lineBuilder) { b.user = user }
}

// WithMetrics replaces the metrics document (raw JSON).
func WithMetrics(metricsJSON string) LineOption {
	return func(b *lineBuilder) { b.metrics = metricsJSON }
}

// WriteSpoolFile writes lines as a JSONL file under the spool layout
// <rawRoot>/<host>/<user>/<name> and returns the path.
func WriteSpoolFile(t testing.TB, rawRoot, host, user, name string, lines ...string) string {
	t.Helper()

	dir := filepath.Join(rawRoot, host, user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir spool dir: %v", err)
	}
	path := filepath.Join(dir, name)
	contents := strings.Join(lines, "\n")
	if len(lines) > 0 {
		contents += "\n"
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write spool file: %v", err)
	}
	return path
}

// SetMtime rewinds a file's modification time, typically so it clears the
// settle window.
func SetMtime(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
