package envelope

import (
	"encoding/json"
	"time"
)

// Pipeline identifies the producing pipeline integration.
type Pipeline struct {
	Name string `json:"name"`
	// DCC is absent for background collectors (tractor poll, storage scan).
	DCC string `json:"dcc,omitempty"`
}

// Host identifies the machine and account that emitted the event.
type Host struct {
	Hostname string `json:"hostname"`
	User     string `json:"user"`
	OS       string `json:"os,omitempty"`
}

// Session groups events from one tool session.
type Session struct {
	ID       string `json:"session_id"`
	ActionID string `json:"action_id,omitempty"`
}

// Scope is the optional project context attached to events. All fields are
// sparse; background collectors typically carry no scope at all.
type Scope struct {
	Show       string `json:"show,omitempty"`
	Sequence   string `json:"sequence,omitempty"`
	Shot       string `json:"shot,omitempty"`
	Asset      string `json:"asset,omitempty"`
	Department string `json:"department,omitempty"`
	Task       string `json:"task,omitempty"`
}

// ErrorDetail is present only when status is "error". Both fields are emitted
// on a best-effort basis by producers, but code is required by validation.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Envelope is the complete validated representation of one telemetry event.
// Unknown fields emitted by future producer versions are ignored during
// decoding rather than treated as errors.
type Envelope struct {
	EventID       string
	SchemaVersion string
	EventType     string
	OccurredAtUTC time.Time
	Status        string

	Pipeline Pipeline
	Host     Host
	Session  Session
	Scope    Scope
	Error    *ErrorDetail

	// Payload and Metrics are event-type specific and stored verbatim.
	Payload json.RawMessage
	Metrics json.RawMessage
}

// wireEnvelope is the decode target for one raw line. Pointer fields
// distinguish an absent required field from a present-but-empty one.
type wireEnvelope struct {
	EventID       *string          `json:"event_id"`
	SchemaVersion *string          `json:"schema_version"`
	EventType     *string          `json:"event_type"`
	OccurredAtUTC *string          `json:"occurred_at_utc"`
	Status        *string          `json:"status"`
	Pipeline      *wirePipeline    `json:"pipeline"`
	Host          *wireHost        `json:"host"`
	Session       *wireSession     `json:"session"`
	Scope         *Scope           `json:"scope"`
	Error         *ErrorDetail     `json:"error"`
	Payload       json.RawMessage  `json:"payload"`
	Metrics       json.RawMessage  `json:"metrics"`
}

type wirePipeline struct {
	Name *string `json:"name"`
	DCC  string  `json:"dcc"`
}

type wireHost struct {
	Hostname *string `json:"hostname"`
	User     *string `json:"user"`
	OS       string  `json:"os"`
}

type wireSession struct {
	ID       *string `json:"session_id"`
	ActionID string  `json:"action_id"`
}
