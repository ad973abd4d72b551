package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jkshenton/jasp/internal/observability"
	"github.com/jkshenton/jasp/pkg/lifecycle"
	"github.com/jkshenton/jasp/pkg/output"
	"github.com/jkshenton/jasp/pkg/walk"
)

var statusCmd = &cobra.Command{
	Use:   "status [dirs...]",
	Short: "Classify job directories without touching them",
	Long: `Report the lifecycle state of each qualifying job directory.

Unlike run, status is strictly read-only: it never deletes the job-id
file, never writes inputs and never submits anything. Directories that
cannot be classified are reported as unrecognized.

Examples:
  jasp status
  jasp status -r calcs/
  jasp status --output table calcs/bulk-si`,
	RunE: runStatus,
}

var (
	statusRecursive bool
	statusIncludes  []string
	statusExcludes  []string
	statusOutput    string
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusRecursive, "recursive", "r", false, "Descend into each directory looking for job directories")
	statusCmd.Flags().StringArrayVar(&statusIncludes, "include", nil, "Include glob for recursive descent (repeatable)")
	statusCmd.Flags().StringArrayVar(&statusExcludes, "exclude", nil, "Exclude glob for recursive descent (repeatable)")
	statusCmd.Flags().StringVar(&statusOutput, "output", "jsonl", "Output format (jsonl|table)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if statusOutput != "jsonl" && statusOutput != "table" {
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected jsonl or table"))
	}

	q, err := newQueue()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid queue configuration", err)
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	finder := &walk.Finder{
		Recursive: statusRecursive,
		Includes:  statusIncludes,
		Excludes:  statusExcludes,
	}
	dirs, err := finder.Find(roots)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid directory selection", err)
	}

	start := time.Now()
	w := output.NewJSONLWriter(os.Stdout, uuid.New().String())
	defer func() { _ = w.Close() }()

	var tw *tabwriter.Writer
	if statusOutput == "table" {
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DIR\tSTATE\tJOBID")
	}

	sum := output.SummaryRecord{Dirs: len(dirs)}
	for _, dir := range dirs {
		facts, err := lifecycle.Gather(ctx, dir, q)
		if err != nil {
			sum.Errors++
			observability.CLILogger.Error("gather failed",
				zap.String("dir", dir), zap.Error(err))
			if statusOutput == "table" {
				fmt.Fprintf(tw, "%s\terror\t\n", dir)
				continue
			}
			if werr := w.WriteError(ctx, &output.ErrorRecord{
				Dir:     dir,
				Code:    output.ErrCodeInternal,
				Message: err.Error(),
			}); werr != nil {
				return werr
			}
			continue
		}

		state := lifecycle.Classify(facts)
		switch state {
		case lifecycle.StateQueuedWaiting:
			sum.Queued++
		case lifecycle.StateFinishedFirst, lifecycle.StateFinishedObserved:
			sum.Finished++
		}

		if statusOutput == "table" {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", dir, state, facts.JobID)
			continue
		}
		rec := &output.ResultRecord{
			Dir:     dir,
			State:   state.String(),
			JobID:   facts.JobID,
			Queued:  state == lifecycle.StateQueuedWaiting,
			Running: state == lifecycle.StateQueuedRunning,
		}
		if err := w.WriteResult(ctx, rec); err != nil {
			return err
		}
	}

	sum.Duration = time.Since(start)
	if statusOutput == "table" {
		if err := tw.Flush(); err != nil {
			return err
		}
		return nil
	}
	return w.WriteSummary(ctx, &sum)
}
