package lifecycle

import (
	"fmt"
	"strings"
)

// NotFinishedError reports that a finished-looking calculation did not
// actually complete: an empty result snapshot or a log without the
// termination marker. It is recoverable — the caller resubmits or
// retries later — and carries a diagnostic tail for the operator.
type NotFinishedError struct {
	Dir         string
	Reason      string
	Diagnostics []string
}

func (e *NotFinishedError) Error() string {
	msg := fmt.Sprintf("calculation not finished in %s: %s", e.Dir, e.Reason)
	if len(e.Diagnostics) > 0 {
		msg += "\n" + strings.Join(e.Diagnostics, "\n")
	}
	return msg
}

// QueuedError is informational: the job is already in the queue, so
// there is nothing to do but wait. Batch drivers catch it and continue
// with the next directory.
type QueuedError struct {
	Dir   string
	JobID string
}

func (e *QueuedError) Error() string {
	return fmt.Sprintf("job %s is queued in %s", e.JobID, e.Dir)
}

// SubmittedError is informational: the job was just handed to the
// scheduler. Like QueuedError, drivers catch it and continue.
type SubmittedError struct {
	Dir   string
	JobID string
}

func (e *SubmittedError) Error() string {
	return fmt.Sprintf("job %s submitted from %s", e.JobID, e.Dir)
}

// UnknownStateError is fatal: the sentinel file combination matches no
// classification rule, which means the directory is corrupt. It is
// never retried automatically and never swallowed.
type UnknownStateError struct {
	Dir string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unrecognized state of directory %s", e.Dir)
}

// LoadError reports that an existing multi-image job could not be
// loaded from disk. The controller falls back to initializing a fresh
// one; the error type exists so that fallback is an explicit decision
// rather than a blanket catch.
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load multi-image job in %s: %v", e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
