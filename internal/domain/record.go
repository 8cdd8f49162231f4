package domain

import "time"

// Record is one immutable fact about a run. The set of implementations is
// closed: every concrete record lives in this package and is listed in
// RecordTypes.
type Record interface {
	Type() RecordType
	Header() Envelope
	record()
}

// Envelope holds the fields shared by every record.
type Envelope struct {
	// Time is seconds since the epoch with microsecond resolution.
	Time          float64 `json:"time"`
	AgentID       string  `json:"agent_id"`
	AgentName     string  `json:"agent_name"`
	AgentRunnerID string  `json:"agent_runner_id"`
	// CallingAgentID is nil for the root invocation of a run.
	CallingAgentID *string `json:"calling_agent_id"`
}

// Header returns the envelope itself so that every embedding record
// satisfies Record.
func (e Envelope) Header() Envelope { return e }

func (Envelope) record() {}

// IsRoot reports whether the record was produced by the root invocation.
func (e Envelope) IsRoot() bool { return e.CallingAgentID == nil }

// MicroTime converts t to fractional seconds since the epoch.
func MicroTime(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// CallerRef turns an optional caller id into the envelope representation:
// an empty id means no caller.
func CallerRef(callerID string) *string {
	if callerID == "" {
		return nil
	}
	return &callerID
}
