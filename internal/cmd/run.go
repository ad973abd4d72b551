package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jkshenton/jasp/internal/observability"
	"github.com/jkshenton/jasp/pkg/hooks"
	"github.com/jkshenton/jasp/pkg/lifecycle"
	"github.com/jkshenton/jasp/pkg/output"
	"github.com/jkshenton/jasp/pkg/queue"
	"github.com/jkshenton/jasp/pkg/walk"
)

var runCmd = &cobra.Command{
	Use:   "run [dirs...]",
	Short: "Resolve job directories and trigger calculations",
	Long: `Enter each qualifying job directory, classify its state and drive it
forward: submit unsubmitted jobs, report queued/running ones, validate
and harvest finished ones.

Queued and submitted are informational conditions; the run continues
with the next directory. Any other failure is reported for that
directory and counted in the summary.

Examples:
  jasp run
  jasp run calcs/bulk-si calcs/bulk-ge
  jasp run -r calcs/ --exclude '**/scratch/**'
  jasp run --output table`,
	RunE: runRun,
}

var (
	runRecursive  bool
	runIncludes   []string
	runExcludes   []string
	runOutput     string
	runKeepCharge bool
	runKeepWave   bool
	runSet        []string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runRecursive, "recursive", "r", false, "Descend into each directory looking for job directories")
	runCmd.Flags().StringArrayVar(&runIncludes, "include", nil, "Include glob for recursive descent (repeatable)")
	runCmd.Flags().StringArrayVar(&runExcludes, "exclude", nil, "Exclude glob for recursive descent (repeatable)")
	runCmd.Flags().StringVar(&runOutput, "output", "jsonl", "Output format (jsonl|table)")
	runCmd.Flags().BoolVar(&runKeepCharge, "keep-chgcar", false, "Keep the charge-density cache file")
	runCmd.Flags().BoolVar(&runKeepWave, "keep-wavecar", false, "Keep the wavefunction cache file")
	runCmd.Flags().StringArrayVar(&runSet, "set", nil, "Parameter override KEY=VALUE (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if runOutput != "jsonl" && runOutput != "table" {
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected jsonl or table"))
	}

	overrides, err := parseOverrides(runSet)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --set value", err)
	}

	q, err := newQueue()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid queue configuration", err)
	}

	ctrl := lifecycle.NewController(q, observability.CLILogger)
	closeHooks, err := registerHooks(ctx, ctrl)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to set up completion hooks", err)
	}
	defer closeHooks()

	dirs, err := findRunDirs(args)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid directory selection", err)
	}

	opts := lifecycle.Options{
		Overrides:  overrides,
		KeepCharge: runKeepCharge || appConfig.Run.KeepCharge,
		KeepWave:   runKeepWave || appConfig.Run.KeepWave,
	}

	start := time.Now()
	runID := uuid.New().String()
	w := output.NewJSONLWriter(os.Stdout, runID)
	defer func() { _ = w.Close() }()

	var tw *tabwriter.Writer
	if runOutput == "table" {
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DIR\tSTATE\tRESULT")
	}

	sum := output.SummaryRecord{Dirs: len(dirs)}
	for _, dir := range dirs {
		res := processDir(ctx, ctrl, q, dir, opts)
		switch res.Code {
		case "":
			sum.Finished++
		case "queued":
			sum.Queued++
		case "submitted":
			sum.Submitted++
		default:
			sum.Errors++
		}

		if runOutput == "table" {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", dir, res.State, res.Message)
			continue
		}
		if res.Code == "" || res.Code == "queued" || res.Code == "submitted" {
			rec := &output.ResultRecord{
				Dir:     dir,
				State:   res.State,
				JobID:   res.JobID,
				Queued:  res.Code == "queued",
				Running: res.State == "running",
				Message: res.Message,
			}
			if err := w.WriteResult(ctx, rec); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteError(ctx, &output.ErrorRecord{
			Dir:         dir,
			Code:        res.Code,
			Message:     res.Message,
			Diagnostics: res.Diagnostics,
		}); err != nil {
			return err
		}
	}

	sum.Duration = time.Since(start)
	if runOutput == "table" {
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run: dirs=%d finished=%d queued=%d submitted=%d errors=%d\n",
			sum.Dirs, sum.Finished, sum.Queued, sum.Submitted, sum.Errors)
	} else if err := w.WriteSummary(ctx, &sum); err != nil {
		return err
	}

	if sum.Errors > 0 {
		return exitError(exitCodePartialFailure, "Some directories failed",
			fmt.Errorf("%d of %d directories reported errors", sum.Errors, sum.Dirs))
	}
	return nil
}

// dirResult is the outcome of processing one directory.
type dirResult struct {
	State       string
	JobID       string
	Code        string // "", "queued", "submitted" or an error code
	Message     string
	Diagnostics []string
}

// processDir enters dir, resolves it and triggers the calculation. The
// working directory is restored on every path; domain conditions are
// classified here, at the call site, never inside the scope wrapper.
func processDir(ctx context.Context, ctrl *lifecycle.Controller, q *queue.CommandQueue, dir string, opts lifecycle.Options) dirResult {
	h, err := lifecycle.InDir(dir, func() (*lifecycle.Handle, error) {
		h, err := ctrl.Resolve(ctx, ".", opts)
		if err != nil {
			return nil, err
		}
		return h, ctrl.Trigger(ctx, h, q, appConfig.Queue.Script)
	})

	res := dirResult{}
	if h != nil {
		res.State = h.State().String()
	}

	var queued *lifecycle.QueuedError
	var submitted *lifecycle.SubmittedError
	var notFinished *lifecycle.NotFinishedError
	var unknown *lifecycle.UnknownStateError

	switch {
	case err == nil:
		res.Message = "ok"
	case errors.As(err, &queued):
		res.Code = "queued"
		res.JobID = queued.JobID
		res.Message = queued.Error()
	case errors.As(err, &submitted):
		res.Code = "submitted"
		res.JobID = submitted.JobID
		res.Message = submitted.Error()
	case errors.As(err, &notFinished):
		res.Code = output.ErrCodeNotFinished
		res.Message = notFinished.Reason
		res.Diagnostics = notFinished.Diagnostics
	case errors.As(err, &unknown):
		res.Code = output.ErrCodeUnknownState
		res.Message = unknown.Error()
	default:
		res.Code = output.ErrCodeInternal
		res.Message = err.Error()
	}

	if res.Code != "" && res.Code != "queued" && res.Code != "submitted" {
		observability.CLILogger.Error("directory failed",
			zap.String("dir", dir), zap.Error(err))
	}
	return res
}

// findRunDirs resolves the directory arguments: explicit job dirs when
// non-recursive, a scoped walk when recursive.
func findRunDirs(args []string) ([]string, error) {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	finder := &walk.Finder{
		Recursive: runRecursive,
		Includes:  runIncludes,
		Excludes:  runExcludes,
	}
	return finder.Find(roots)
}

// newQueue builds the scheduler wrapper from config.
func newQueue() (*queue.CommandQueue, error) {
	return queue.New(queue.Config{
		StatusCommand:    appConfig.Queue.StatusCommand,
		SubmitCommand:    appConfig.Queue.SubmitCommand,
		StatusRatePerSec: appConfig.Queue.StatusRatePerSec,
	}, observability.CLILogger)
}

// registerHooks wires the configured post-completion hooks onto the
// controller and returns a cleanup function.
func registerHooks(ctx context.Context, ctrl *lifecycle.Controller) (func(), error) {
	cleanup := func() {}

	if appConfig.Archive.Enabled {
		a, err := hooks.NewArchiver(ctx, hooks.ArchiveConfig{
			Bucket:          appConfig.Archive.Bucket,
			Prefix:          appConfig.Archive.Prefix,
			Region:          appConfig.Archive.Region,
			Endpoint:        appConfig.Archive.Endpoint,
			AccessKeyID:     appConfig.Archive.AccessKeyID,
			SecretAccessKey: appConfig.Archive.SecretAccessKey,
			ForcePathStyle:  appConfig.Archive.ForcePathStyle,
		}, observability.CLILogger)
		if err != nil {
			return cleanup, err
		}
		ctrl.OnComplete(a.Hook())
	}

	if appConfig.Events.Enabled {
		p, err := hooks.NewPublisher(appConfig.Events.URL, appConfig.Events.Subject, observability.CLILogger)
		if err != nil {
			return cleanup, err
		}
		ctrl.OnComplete(p.Hook())
		cleanup = p.Close
	}

	return cleanup, nil
}

// parseOverrides turns KEY=VALUE flags into an override map. Values
// stay strings; the parameter layer coerces them per group.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", p)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out, nil
}
