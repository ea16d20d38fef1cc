package envelope

import (
	"encoding/json"
	"time"
)

// Row is the flattened form of a validated envelope, matching the
// silver_events column layout exactly. Empty strings persist as NULL.
type Row struct {
	EventID       string
	SchemaVersion string
	EventType     string
	OccurredAtUTC time.Time
	Status        string

	PipelineName string
	PipelineDCC  string

	HostHostname string
	HostUser     string
	HostOS       string

	SessionID string
	ActionID  string

	ScopeShow       string
	ScopeSequence   string
	ScopeShot       string
	ScopeAsset      string
	ScopeDepartment string
	ScopeTask       string

	ErrorCode    string
	ErrorMessage string

	// Payload and Metrics are compact JSON documents.
	Payload string
	Metrics string

	// DurationMS is resolved from the per-event-type alias table; nil when
	// the event carries no duration metric.
	DurationMS *int64

	SourceFile string
	SourceLine int
}

func flattenV1(env *Envelope, sourceFile string, sourceLine int) Row {
	row := Row{
		EventID:         env.EventID,
		SchemaVersion:   env.SchemaVersion,
		EventType:       env.EventType,
		OccurredAtUTC:   env.OccurredAtUTC,
		Status:          env.Status,
		PipelineName:    env.Pipeline.Name,
		PipelineDCC:     env.Pipeline.DCC,
		HostHostname:    env.Host.Hostname,
		HostUser:        env.Host.User,
		HostOS:          env.Host.OS,
		SessionID:       env.Session.ID,
		ActionID:        env.Session.ActionID,
		ScopeShow:       env.Scope.Show,
		ScopeSequence:   env.Scope.Sequence,
		ScopeShot:       env.Scope.Shot,
		ScopeAsset:      env.Scope.Asset,
		ScopeDepartment: env.Scope.Department,
		ScopeTask:       env.Scope.Task,
		Payload:         string(env.Payload),
		Metrics:         string(env.Metrics),
		DurationMS:      resolveDuration(env),
		SourceFile:      sourceFile,
		SourceLine:      sourceLine,
	}
	if env.Error != nil {
		row.ErrorCode = env.Error.Code
		row.ErrorMessage = env.Error.Message
	}
	return row
}

// resolveDuration extracts the aliased duration metric for the event type.
// Non-numeric or missing values yield nil rather than an error: metrics are
// producer best-effort data.
func resolveDuration(env *Envelope) *int64 {
	alias, ok := durationAliases[env.EventType]
	if !ok {
		return nil
	}
	var metrics map[string]json.RawMessage
	if err := json.Unmarshal(env.Metrics, &metrics); err != nil {
		return nil
	}
	raw, ok := metrics[alias]
	if !ok {
		return nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	ms := int64(value)
	return &ms
}
