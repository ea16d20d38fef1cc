package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Rejection reasons surfaced in quarantine records. Reasons carrying a field
// name are built with the reason*Field helpers.
const (
	ReasonParseError         = "parse_error"
	ReasonUnsupportedVersion = "unsupported_schema_version"
	ReasonUnknownEventType   = "unknown_event_type"
	ReasonMissingErrorDetail = "missing_error_detail"
	ReasonClockSkew          = "clock_skew"
)

func reasonMissingField(name string) string { return "missing_field:" + name }

func reasonInvalidField(name, detail string) string {
	return fmt.Sprintf("invalid_field:%s (%s)", name, detail)
}

// Result is the outcome of validating one raw line: either a validated
// envelope or a rejection reason, never both.
type Result struct {
	Envelope *Envelope
	Reason   string
}

// OK reports whether the line passed validation.
func (r Result) OK() bool { return r.Envelope != nil }

func ok(env *Envelope) Result { return Result{Envelope: env} }

func rejected(reason string) Result { return Result{Reason: reason} }

// versionStrategy bundles the validation and flattening behaviour for one
// schema version. Supporting a new version means adding a table entry, not a
// new type hierarchy.
type versionStrategy struct {
	validate func(w *wireEnvelope, now time.Time, skewTolerance time.Duration) Result
	flatten  func(env *Envelope, sourceFile string, sourceLine int) Row
}

var versionStrategies = map[string]versionStrategy{
	"1.0": {validate: validateV1, flatten: flattenV1},
}

// Validator validates raw JSONL lines against the envelope contract.
// SkewTolerance bounds how far in the future occurred_at_utc may lie; zero
// disables the check.
type Validator struct {
	SkewTolerance time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Validate checks one raw line. Check order: parse, required fields, schema
// version, event type catalog, error detail, clock skew. Malformed input is
// reported as a rejection, never as an error or panic.
func (v Validator) Validate(raw []byte) Result {
	// A bare JSON null unmarshals into the wire struct without error; only
	// object lines are envelopes.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return rejected(ReasonParseError)
	}

	var wire wireEnvelope
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return rejected(ReasonParseError)
	}

	if reason, missing := firstMissingField(&wire); missing {
		return rejected(reason)
	}

	strategy, supported := versionStrategies[*wire.SchemaVersion]
	if !supported {
		return rejected(ReasonUnsupportedVersion)
	}

	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	return strategy.validate(&wire, now, v.SkewTolerance)
}

// Flatten converts a validated envelope into a silver row. The strategy is
// looked up by the envelope's own schema version, which Validate has already
// confirmed is supported.
func Flatten(env *Envelope, sourceFile string, sourceLine int) Row {
	return versionStrategies[env.SchemaVersion].flatten(env, sourceFile, sourceLine)
}

// firstMissingField checks the nine required envelope fields in contract
// order and returns the rejection reason for the first absent one.
func firstMissingField(w *wireEnvelope) (string, bool) {
	checks := []struct {
		name    string
		present bool
	}{
		{"event_id", w.EventID != nil && *w.EventID != ""},
		{"schema_version", w.SchemaVersion != nil && *w.SchemaVersion != ""},
		{"event_type", w.EventType != nil && *w.EventType != ""},
		{"occurred_at_utc", w.OccurredAtUTC != nil && *w.OccurredAtUTC != ""},
		{"status", w.Status != nil && *w.Status != ""},
		{"pipeline.name", w.Pipeline != nil && w.Pipeline.Name != nil && *w.Pipeline.Name != ""},
		{"host.hostname", w.Host != nil && w.Host.Hostname != nil && *w.Host.Hostname != ""},
		{"host.user", w.Host != nil && w.Host.User != nil && *w.Host.User != ""},
		{"session.id", w.Session != nil && w.Session.ID != nil && *w.Session.ID != ""},
	}
	for _, check := range checks {
		if !check.present {
			return reasonMissingField(check.name), true
		}
	}
	return "", false
}

func validateV1(w *wireEnvelope, now time.Time, skewTolerance time.Duration) Result {
	occurredAt, err := time.Parse(time.RFC3339, *w.OccurredAtUTC)
	if err != nil {
		return rejected(reasonInvalidField("occurred_at_utc", "not an RFC 3339 timestamp"))
	}

	if _, known := KnownEventTypes[*w.EventType]; !known {
		return rejected(ReasonUnknownEventType)
	}

	switch *w.Status {
	case "success", "error":
	default:
		return rejected(reasonInvalidField("status", "must be success or error"))
	}

	if *w.Status == "error" && (w.Error == nil || w.Error.Code == "") {
		return rejected(ReasonMissingErrorDetail)
	}

	if skewTolerance > 0 && occurredAt.After(now.Add(skewTolerance)) {
		return rejected(ReasonClockSkew)
	}

	env := &Envelope{
		EventID:       *w.EventID,
		SchemaVersion: *w.SchemaVersion,
		EventType:     *w.EventType,
		OccurredAtUTC: occurredAt.UTC(),
		Status:        *w.Status,
		Pipeline:      Pipeline{Name: *w.Pipeline.Name, DCC: w.Pipeline.DCC},
		Host:          Host{Hostname: *w.Host.Hostname, User: *w.Host.User, OS: w.Host.OS},
		Session:       Session{ID: *w.Session.ID, ActionID: w.Session.ActionID},
		Payload:       compactOrEmpty(w.Payload),
		Metrics:       compactOrEmpty(w.Metrics),
	}
	if w.Scope != nil {
		env.Scope = *w.Scope
	}
	if w.Error != nil {
		detail := *w.Error
		env.Error = &detail
	}
	return ok(env)
}

// compactOrEmpty normalizes an optional JSON document to "{}" when absent.
func compactOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
