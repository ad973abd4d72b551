package lifecycle

// Classify maps one fact bundle to a lifecycle state.
//
// Pure function over Facts: no filesystem, no queue, fully unit
// testable with synthetic bundles. Rules are checked in precedence
// order and the first match wins; anything left over is
// StateUnrecognized, which callers must treat as fatal.
func Classify(f Facts) State {
	switch {
	case !f.HasInput:
		return StateEmpty

	case !f.HasJobID && !f.HasResult:
		// Configured but never submitted. The running flag is
		// deliberately not consulted: a stray flag without a job id
		// changes nothing about what the caller can do here.
		return StateConfigured

	case f.HasJobID && f.InQueue && !f.HasRunning:
		return StateQueuedWaiting

	case f.HasJobID && f.InQueue && f.HasRunning:
		return StateQueuedRunning

	case f.HasJobID && !f.InQueue && !f.HasRunning:
		return StateFinishedFirst

	case !f.HasJobID && !f.HasRunning && f.HasResult && f.HasLog && f.HasArchive:
		return StateFinishedObserved

	default:
		return StateUnrecognized
	}
}
