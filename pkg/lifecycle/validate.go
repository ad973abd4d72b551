package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/queue"
	"github.com/jkshenton/jasp/pkg/sentinel"
)

// logTailLines is how much of the log we attach to a NotFinishedError.
const logTailLines = 20

// Validator decides whether a finished-looking directory actually holds
// a completed calculation.
//
// The two checks catch the two common partial-failure modes of an
// abruptly killed external job: a zero-byte result file (killed before
// any write) and a truncated log (killed mid-write). No exit code is
// involved — none is reliably available once the job has left the
// queue.
type Validator struct {
	Log *zap.Logger
}

// Validate returns nil when the calculation in dir completed cleanly.
//
// Failure modes:
//   - result file absent entirely: the underlying *sentinel.NotFoundError
//     propagates; absence is not "not ok", it is a different condition.
//   - result file empty: the result file and the job-id file are
//     deleted (garbage-collecting a corrupted restart point) and a
//     *NotFinishedError is returned. The next classification of the
//     directory lands in the configured state and can resubmit.
//   - log's last line lacks the termination marker: *NotFinishedError
//     carrying the log tail plus the scheduler's captured output for
//     jobID, when found.
//
// jobID may be empty; it only feeds diagnostics.
func (v *Validator) Validate(dir, jobID string) error {
	log := v.Log
	if log == nil {
		log = zap.NewNop()
	}

	empty, err := sentinel.IsEmpty(dir, engine.ResultFile)
	if err != nil {
		return err
	}
	if empty {
		log.Warn("empty result file, removing restart point",
			zap.String("dir", dir))
		if err := os.Remove(filepath.Join(dir, engine.ResultFile)); err != nil {
			return fmt.Errorf("remove empty %s: %w", engine.ResultFile, err)
		}
		if err := os.Remove(filepath.Join(dir, engine.JobIDFile)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", engine.JobIDFile, err)
		}
		return &NotFinishedError{
			Dir: dir,
			Reason: fmt.Sprintf("%s was empty; it and %s have been deleted, rerun to resubmit",
				engine.ResultFile, engine.JobIDFile),
		}
	}

	last, err := sentinel.LastLine(dir, engine.LogFile)
	if err != nil {
		return err
	}
	if !strings.Contains(last, engine.TerminationMarker) {
		diags := queue.OutputTail(dir, jobID, logTailLines)
		if tail, err := sentinel.TailLines(dir, engine.LogFile, logTailLines); err == nil {
			diags = append(diags, fmt.Sprintf("last %d lines of %s:", logTailLines, engine.LogFile))
			diags = append(diags, tail...)
		}
		return &NotFinishedError{
			Dir:         dir,
			Reason:      fmt.Sprintf("no termination marker at end of %s", engine.LogFile),
			Diagnostics: diags,
		}
	}

	return nil
}
