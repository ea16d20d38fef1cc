package envelope_test

import (
	"strings"
	"testing"
	"time"

	"siphon/internal/envelope"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newValidator() envelope.Validator {
	return envelope.Validator{
		SkewTolerance: time.Hour,
		Now:           func() time.Time { return fixedNow },
	}
}

const validLine = `{
	"schema_version": "1.0",
	"event_id": "bfc41fdd-0001",
	"event_type": "playblast.create",
	"occurred_at_utc": "2026-03-01T02:41:55Z",
	"status": "success",
	"pipeline": {"name": "sandwich-pipeline", "dcc": "maya"},
	"host": {"hostname": "samus.cs.byu.edu", "os": "Linux", "user": "rees23"},
	"session": {"session_id": "53fe7b", "action_id": "5e440a"},
	"payload": {"preset": "web", "frame_start": 1001},
	"metrics": {"duration_ms": 1294, "output_size_bytes": 57584654},
	"scope": {"shot": "custom"}
}`

func TestValidateAcceptsWellFormedEnvelope(t *testing.T) {
	res := newValidator().Validate([]byte(validLine))
	if !res.OK() {
		t.Fatalf("expected acceptance, got rejection %q", res.Reason)
	}
	env := res.Envelope
	if env.EventID != "bfc41fdd-0001" {
		t.Errorf("EventID = %q", env.EventID)
	}
	if env.Pipeline.DCC != "maya" {
		t.Errorf("Pipeline.DCC = %q", env.Pipeline.DCC)
	}
	if env.Scope.Shot != "custom" {
		t.Errorf("Scope.Shot = %q", env.Scope.Shot)
	}
	if !env.OccurredAtUTC.Equal(time.Date(2026, 3, 1, 2, 41, 55, 0, time.UTC)) {
		t.Errorf("OccurredAtUTC = %v", env.OccurredAtUTC)
	}
}

func TestValidateParseError(t *testing.T) {
	for _, raw := range []string{"{not json", `"just a string"`, `[1,2,3]`, `null`, `true`, `42`} {
		res := newValidator().Validate([]byte(raw))
		if res.OK() || res.Reason != envelope.ReasonParseError {
			t.Errorf("Validate(%q) reason = %q, want parse_error", raw, res.Reason)
		}
	}
}

func TestValidateMissingFields(t *testing.T) {
	cases := []struct {
		drop string
		want string
	}{
		{`"event_id": "bfc41fdd-0001",`, "missing_field:event_id"},
		{`"schema_version": "1.0",`, "missing_field:schema_version"},
		{`"event_type": "playblast.create",`, "missing_field:event_type"},
		{`"occurred_at_utc": "2026-03-01T02:41:55Z",`, "missing_field:occurred_at_utc"},
		{`"status": "success",`, "missing_field:status"},
		{`"pipeline": {"name": "sandwich-pipeline", "dcc": "maya"},`, "missing_field:pipeline.name"},
		{`"host": {"hostname": "samus.cs.byu.edu", "os": "Linux", "user": "rees23"},`, "missing_field:host.hostname"},
		{`"session": {"session_id": "53fe7b", "action_id": "5e440a"},`, "missing_field:session.id"},
	}
	for _, tc := range cases {
		line := strings.Replace(validLine, tc.drop, "", 1)
		res := newValidator().Validate([]byte(line))
		if res.OK() || res.Reason != tc.want {
			t.Errorf("dropping %s: reason = %q, want %q", tc.drop, res.Reason, tc.want)
		}
	}
}

func TestValidateMissingUserWithinHost(t *testing.T) {
	line := strings.Replace(validLine, `"user": "rees23"`, `"user": ""`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || res.Reason != "missing_field:host.user" {
		t.Errorf("reason = %q, want missing_field:host.user", res.Reason)
	}
}

func TestValidateUnsupportedSchemaVersion(t *testing.T) {
	line := strings.Replace(validLine, `"schema_version": "1.0"`, `"schema_version": "9.9"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || res.Reason != envelope.ReasonUnsupportedVersion {
		t.Errorf("reason = %q, want unsupported_schema_version", res.Reason)
	}
}

func TestValidateUnknownEventType(t *testing.T) {
	line := strings.Replace(validLine, `"event_type": "playblast.create"`, `"event_type": "coffee.brew"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || res.Reason != envelope.ReasonUnknownEventType {
		t.Errorf("reason = %q, want unknown_event_type", res.Reason)
	}
}

func TestValidateErrorStatusRequiresCode(t *testing.T) {
	line := strings.Replace(validLine, `"status": "success"`, `"status": "error"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || res.Reason != envelope.ReasonMissingErrorDetail {
		t.Errorf("reason = %q, want missing_error_detail", res.Reason)
	}

	withDetail := strings.Replace(line, `"scope": {"shot": "custom"}`,
		`"scope": {"shot": "custom"}, "error": {"code": "E42", "message": "export failed"}`, 1)
	res = newValidator().Validate([]byte(withDetail))
	if !res.OK() {
		t.Fatalf("expected acceptance with error detail, got %q", res.Reason)
	}
	if res.Envelope.Error == nil || res.Envelope.Error.Code != "E42" {
		t.Errorf("Error detail = %+v", res.Envelope.Error)
	}
}

func TestValidateInvalidStatus(t *testing.T) {
	line := strings.Replace(validLine, `"status": "success"`, `"status": "warning"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || !strings.HasPrefix(res.Reason, "invalid_field:status") {
		t.Errorf("reason = %q, want invalid_field:status", res.Reason)
	}
}

func TestValidateClockSkew(t *testing.T) {
	future := fixedNow.Add(2 * time.Hour).Format(time.RFC3339)
	line := strings.Replace(validLine, `"occurred_at_utc": "2026-03-01T02:41:55Z"`,
		`"occurred_at_utc": "`+future+`"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || res.Reason != envelope.ReasonClockSkew {
		t.Errorf("reason = %q, want clock_skew", res.Reason)
	}

	// Within tolerance is fine.
	near := fixedNow.Add(30 * time.Minute).Format(time.RFC3339)
	line = strings.Replace(validLine, `"occurred_at_utc": "2026-03-01T02:41:55Z"`,
		`"occurred_at_utc": "`+near+`"`, 1)
	if res := newValidator().Validate([]byte(line)); !res.OK() {
		t.Errorf("within-tolerance timestamp rejected: %q", res.Reason)
	}
}

func TestValidateBadTimestamp(t *testing.T) {
	line := strings.Replace(validLine, `"occurred_at_utc": "2026-03-01T02:41:55Z"`,
		`"occurred_at_utc": "yesterday"`, 1)
	res := newValidator().Validate([]byte(line))
	if res.OK() || !strings.HasPrefix(res.Reason, "invalid_field:occurred_at_utc") {
		t.Errorf("reason = %q, want invalid_field:occurred_at_utc", res.Reason)
	}
}

func TestValidateIgnoresUnknownFields(t *testing.T) {
	line := strings.Replace(validLine, `"schema_version": "1.0",`,
		`"schema_version": "1.0", "future_field": {"x": 1},`, 1)
	if res := newValidator().Validate([]byte(line)); !res.OK() {
		t.Errorf("unknown top-level field caused rejection: %q", res.Reason)
	}
}
