// Package queue wraps the external batch scheduler behind small
// interfaces so the lifecycle controller can be tested with fakes.
//
// The scheduler is consumed through its command-line tools (status
// query and submit), the only interface portable across PBS/Torque and
// Slurm installations. Queue membership, like every other sentinel
// fact, is re-queried fresh on each call.
package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Queue answers whether a job id is currently known to the scheduler
// (queued or running).
type Queue interface {
	Contains(ctx context.Context, jobID string) (bool, error)
}

// Submitter hands a job script to the scheduler and returns the opaque
// job id the scheduler assigned.
type Submitter interface {
	Submit(ctx context.Context, dir, script string) (string, error)
}

// Config configures a CommandQueue.
type Config struct {
	// StatusCommand queries one job id, e.g. ["qstat"] or
	// ["squeue", "-j"]. The job id is appended as the last argument.
	// Exit status zero means the job is in the queue.
	StatusCommand []string

	// SubmitCommand submits a script, e.g. ["qsub"] or ["sbatch"].
	// The script path is appended as the last argument; the first
	// line of stdout is taken as the job id.
	SubmitCommand []string

	// StatusRatePerSec caps status subprocess spawns. Batch drivers
	// walk thousands of directories and schedulers throttle or ban
	// clients that hammer qstat. Zero means no limit.
	StatusRatePerSec float64
}

// CommandQueue is the subprocess-backed Queue and Submitter.
type CommandQueue struct {
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
}

var (
	_ Queue     = (*CommandQueue)(nil)
	_ Submitter = (*CommandQueue)(nil)
)

// New builds a CommandQueue. A nil logger is replaced with a no-op one.
func New(cfg Config, log *zap.Logger) (*CommandQueue, error) {
	if len(cfg.StatusCommand) == 0 {
		return nil, errors.New("queue: status command is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.StatusRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.StatusRatePerSec), 1)
	}
	return &CommandQueue{cfg: cfg, limiter: limiter, log: log}, nil
}

// Contains runs the status command for jobID. Exit status zero means
// present; a non-zero exit means the scheduler no longer knows the id.
// Any other failure (command missing, context cancelled) is an error.
func (q *CommandQueue) Contains(ctx context.Context, jobID string) (bool, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return false, errors.New("queue: job id is empty")
	}
	if err := q.limiter.Wait(ctx); err != nil {
		return false, err
	}

	args := append(append([]string{}, q.cfg.StatusCommand[1:]...), jobID)
	cmd := exec.CommandContext(ctx, q.cfg.StatusCommand[0], args...)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		q.log.Debug("job not in queue",
			zap.String("job_id", jobID),
			zap.Int("exit_code", exitErr.ExitCode()))
		return false, nil
	}
	return false, fmt.Errorf("queue status command: %w", err)
}

// Submit runs the submit command for script in dir and returns the job
// id from the first line of stdout.
func (q *CommandQueue) Submit(ctx context.Context, dir, script string) (string, error) {
	if len(q.cfg.SubmitCommand) == 0 {
		return "", errors.New("queue: submit command is not configured")
	}

	args := append(append([]string{}, q.cfg.SubmitCommand[1:]...), script)
	cmd := exec.CommandContext(ctx, q.cfg.SubmitCommand[0], args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("queue submit command: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	jobID := strings.TrimSpace(strings.SplitN(stdout.String(), "\n", 2)[0])
	if jobID == "" {
		return "", errors.New("queue submit command produced no job id")
	}
	q.log.Info("job submitted", zap.String("job_id", jobID), zap.String("dir", dir))
	return jobID, nil
}

// OutputTail returns the trailing lines of the scheduler's captured
// output file for jobID in dir, if one exists. Schedulers write these
// as <name>.o<jobid> style files; the first match wins. Returns nil
// when no output file is found — diagnostics are best-effort.
func OutputTail(dir, jobID string, n int) []string {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	marker := "o" + jobID
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), marker) {
			continue
		}
		data, err := os.ReadFile(dir + string(os.PathSeparator) + entry.Name())
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > n {
			lines = lines[len(lines)-n:]
		}
		out := []string{"scheduler output (" + entry.Name() + "):"}
		return append(out, lines...)
	}
	return nil
}
