package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/queue"
)

// Trigger drives a resolved handle toward results.
//
// Finished handles are a no-op. Queued or running handles surface an
// informational *QueuedError so batch drivers skip and continue. Empty
// or configured handles get their input files written and the job
// submitted through sub; the new job id is persisted to the job-id file
// and an informational *SubmittedError is returned.
func (c *Controller) Trigger(ctx context.Context, h *Handle, sub queue.Submitter, script string) error {
	dir := h.Dir
	if dir == "" {
		dir = "."
	}

	// Queued/running first: a running job is partially loaded, and
	// Loaded alone must not make it look done.
	if h.Queued || h.Running {
		id, _ := ReadJobID(dir)
		return &QueuedError{Dir: dir, JobID: id}
	}
	if h.Loaded {
		return nil
	}

	if err := c.writeInputs(h); err != nil {
		return err
	}

	jobID, err := sub.Submit(ctx, dir, script)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, engine.JobIDFile), []byte(jobID+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", engine.JobIDFile, err)
	}
	c.Log.Info("job submitted",
		zap.String("dir", dir), zap.String("job_id", jobID))

	return &SubmittedError{Dir: dir, JobID: jobID}
}

// writeInputs materializes the handle's configuration as engine input
// files. Multi-image jobs additionally get one structure per image
// subdirectory.
func (c *Controller) writeInputs(h *Handle) error {
	dir := h.Dir
	if dir == "" {
		dir = "."
	}

	if err := engine.WriteInput(dir, h.Params); err != nil {
		return err
	}

	if kpts, ok := h.Params.Input["kpts"].([]int); ok && len(kpts) == 3 {
		kp := &engine.KPoints{Mesh: [3]int{kpts[0], kpts[1], kpts[2]}}
		if err := engine.WriteKPoints(dir, kp); err != nil {
			return err
		}
	}

	if h.IsNEB() {
		for i, s := range h.NEB.Structures {
			sub := filepath.Join(dir, fmt.Sprintf("%02d", i))
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return err
			}
			if err := engine.WriteStructure(filepath.Join(sub, engine.StructureFile), s); err != nil {
				return err
			}
		}
		return nil
	}

	if h.Structure != nil {
		if len(h.Sort) == 0 {
			h.Sort, h.Resort = engine.IdentityIndices(h.Structure.Len())
		}
		ordered, err := h.Structure.Reorder(h.Sort)
		if err != nil {
			return err
		}
		if err := engine.WriteStructure(filepath.Join(dir, engine.StructureFile), ordered); err != nil {
			return err
		}
		if err := engine.WriteSortIndices(dir, h.Sort, h.Resort); err != nil {
			return err
		}
	}
	return nil
}
