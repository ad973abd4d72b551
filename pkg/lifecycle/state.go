// Package lifecycle is the directory-state classifier and job
// controller.
//
// A job's persistent state lives entirely in its directory: the
// presence, absence and content of a fixed set of sentinel files plus a
// scheduler status query encode where the job stands. This package
// reconstructs that state, drives the correct action for it, and keeps
// every transition safe to re-enter after a process restart.
package lifecycle

// State is the classified lifecycle state of a job directory.
//
// States are mutually exclusive. Classify applies the precedence rules
// in order; the first matching rule wins.
type State int

const (
	// StateUnrecognized means no rule matched the sentinel facts. It
	// indicates sentinel corruption and is always fatal.
	StateUnrecognized State = iota

	// StateEmpty: no input-parameter file; the job was never
	// configured.
	StateEmpty

	// StateConfigured: input files exist but the job was never
	// submitted and produced no results.
	StateConfigured

	// StateQueuedWaiting: submitted and known to the scheduler, but
	// the worker has not started. Result files cannot be trusted yet.
	StateQueuedWaiting

	// StateQueuedRunning: submitted, known to the scheduler, and the
	// worker has touched the running flag. The engine writes
	// incrementally readable results while running.
	StateQueuedRunning

	// StateFinishedFirst: the job left the queue and this is the
	// first observation since. The terminal transition: validate,
	// delete the job-id file, fire post-completion hooks.
	StateFinishedFirst

	// StateFinishedObserved: harvested long ago; the job-id file is
	// gone and all finished markers are present.
	StateFinishedObserved
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfigured:
		return "configured"
	case StateQueuedWaiting:
		return "queued"
	case StateQueuedRunning:
		return "running"
	case StateFinishedFirst:
		return "finished"
	case StateFinishedObserved:
		return "finished"
	default:
		return "unrecognized"
	}
}
