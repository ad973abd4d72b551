// Package output provides JSONL output for batch run results.
//
// Output is structured as typed record envelopes so each line is a
// self-contained JSON object that downstream tooling can parse
// independently of the rest of the stream.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
const (
	// TypeResult identifies per-directory result records.
	TypeResult = "jasp.result.v1"

	// TypeError identifies error records.
	TypeError = "jasp.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "jasp.summary.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "jasp.result.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created.
	TS time.Time `json:"ts"`

	// RunID is the correlation ID for this batch invocation.
	RunID string `json:"run_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ResultRecord is the data payload for one processed job directory.
type ResultRecord struct {
	// Dir is the job directory path.
	Dir string `json:"dir"`

	// State is the classified lifecycle state.
	State string `json:"state"`

	// JobID is the scheduler job id, when one is associated.
	JobID string `json:"job_id,omitempty"`

	// Queued and Running mirror the handle flags.
	Queued  bool `json:"queued,omitempty"`
	Running bool `json:"running,omitempty"`

	// Message carries the queued/submitted notice or result summary.
	Message string `json:"message,omitempty"`
}

// ErrorRecord is the data payload for a per-directory failure.
type ErrorRecord struct {
	// Dir is the job directory the error belongs to.
	Dir string `json:"dir"`

	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Diagnostics carries log/queue tails attached to the error.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Error codes for ErrorRecord.Code.
const (
	ErrCodeNotFinished  = "not_finished"
	ErrCodeUnknownState = "unknown_state"
	ErrCodeInternal     = "internal"
)

// SummaryRecord is the data payload for the final summary line.
type SummaryRecord struct {
	Dirs      int           `json:"dirs"`
	Finished  int           `json:"finished"`
	Queued    int           `json:"queued"`
	Submitted int           `json:"submitted"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration_ns"`
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = errors.New("output writer is closed")

// WriteError wraps errors from write operations with the failing step.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return "output write failed during " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
