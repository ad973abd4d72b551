package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/queue"
	"github.com/jkshenton/jasp/pkg/sentinel"
)

// Facts is one consistent reading of a directory's sentinel files and
// the scheduler. Facts are gathered fresh on every classification; the
// out-of-process worker can change the directory at any time, so a
// cached fact bundle is worse than useless.
type Facts struct {
	HasInput   bool
	HasJobID   bool
	JobID      string // stripped of any dotted host suffix
	HasRunning bool
	InQueue    bool // meaningful only when HasJobID
	HasResult  bool
	HasLog     bool
	HasArchive bool
}

// Gather probes dir and the scheduler in a fixed order: parameter file,
// job-id file, running flag, queue membership, then output files. The
// order matters only for reproducible behavior within one invocation —
// there is an unavoidable check-then-act race against the worker across
// invocations, which the controller tolerates by keeping validator
// failures recoverable.
func Gather(ctx context.Context, dir string, q queue.Queue) (Facts, error) {
	var f Facts

	f.HasInput = sentinel.Has(dir, engine.InputFile)

	f.HasJobID = sentinel.Has(dir, engine.JobIDFile)
	if f.HasJobID {
		id, err := ReadJobID(dir)
		if err != nil {
			return f, err
		}
		f.JobID = id
	}

	f.HasRunning = sentinel.Has(dir, engine.RunningFile)

	if f.HasJobID {
		inQueue, err := q.Contains(ctx, f.JobID)
		if err != nil {
			return f, fmt.Errorf("query queue for job %s: %w", f.JobID, err)
		}
		f.InQueue = inQueue
	}

	f.HasResult = sentinel.Has(dir, engine.ResultFile)
	f.HasLog = sentinel.Has(dir, engine.LogFile)
	f.HasArchive = sentinel.Has(dir, engine.ArchiveFile)

	return f, nil
}

// ReadJobID reads the job-id file in dir and strips the optional dotted
// suffix ("12345.scheduler.host" becomes "12345").
func ReadJobID(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, engine.JobIDFile))
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	id, _, _ := strings.Cut(line, ".")
	if id == "" {
		return "", fmt.Errorf("%s: file holds no job id", engine.JobIDFile)
	}
	return id, nil
}
