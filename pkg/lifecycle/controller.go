package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/params"
	"github.com/jkshenton/jasp/pkg/queue"
)

// Hook is a post-completion callback. Hooks run synchronously, in
// registration order, exactly once per finished job: on the first
// observation of the finished state, after results are loaded and the
// handle is fully annotated (directory, metadata, snapshot). A hook
// error aborts the remaining hooks and propagates to the caller.
type Hook func(*Handle) error

// Options carries the caller's per-invocation inputs.
type Options struct {
	// Structure, when non-nil, is attached to the handle instead of
	// reading the input-structure file.
	Structure *engine.Structure

	// Overrides are parameter updates applied after state resolution
	// (and after the snapshot). The presence of the "spring" key
	// selects the multi-image bootstrap path.
	Overrides map[string]any

	// KeepCharge and KeepWave suppress deletion of the two large
	// cache files after resolution.
	KeepCharge bool
	KeepWave   bool
}

// Controller resolves a job directory's lifecycle state and produces a
// handle for it.
//
// The controller is single-threaded and stateless between invocations;
// everything it knows it re-reads from the directory and the queue.
// The one irrevocable transition it performs is deleting the job-id
// file when a finished job is first observed.
type Controller struct {
	Queue queue.Queue
	Log   *zap.Logger

	hooks []Hook
}

// NewController builds a controller. A nil logger is replaced with a
// no-op one.
func NewController(q queue.Queue, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{Queue: q, Log: log}
}

// OnComplete registers a post-completion hook. Hooks must be registered
// before the invocation that first observes the job finished.
func (c *Controller) OnComplete(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Resolve classifies dir and drives the action for its state: build a
// fresh handle, reconstruct one from input files, attach to a queued or
// running job, or validate and harvest a finished one.
//
// Validator failures propagate unchanged so the caller can tell "not
// finished yet" from "broken". An unrecognized sentinel combination is
// a fatal *UnknownStateError.
func (c *Controller) Resolve(ctx context.Context, dir string, opts Options) (*Handle, error) {
	var (
		h   *Handle
		err error
	)

	// The handle carries the absolute directory from the start, so
	// hooks and callers never see a bare "." from a scoped invocation.
	target, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	if _, neb := opts.Overrides["spring"]; neb {
		// Multi-image bootstrap: load an existing multi-image job, or
		// initialize a fresh one on any load failure.
		h, err = tryLoadNEB(dir)
		if err != nil {
			c.Log.Debug("multi-image load failed, initializing fresh",
				zap.String("dir", dir), zap.Error(err))
			h = initNEB(opts.Structure, opts.Overrides)
		}
		h.state = StateConfigured
		h.Dir = target
		return c.finishResolve(dir, h, opts)
	}

	facts, err := Gather(ctx, dir, c.Queue)
	if err != nil {
		return nil, err
	}
	state := Classify(facts)
	c.Log.Debug("classified job directory",
		zap.String("dir", dir),
		zap.Stringer("state", state),
		zap.String("job_id", facts.JobID))

	switch state {
	case StateEmpty:
		h = newHandle()
		h.Structure = opts.Structure

	case StateConfigured:
		if h, err = c.resolveConfigured(dir, opts); err != nil {
			return nil, err
		}

	case StateQueuedWaiting:
		if h, err = c.resolveQueuedWaiting(dir, opts); err != nil {
			return nil, err
		}

	case StateQueuedRunning:
		if h, err = c.resolveQueuedRunning(dir, opts); err != nil {
			return nil, err
		}

	case StateFinishedFirst:
		if h, err = c.resolveFinishedFirst(dir, facts); err != nil {
			return nil, err
		}

	case StateFinishedObserved:
		v := &Validator{Log: c.Log}
		if err := v.Validate(dir, ""); err != nil {
			return nil, err
		}
		if h, err = loadFull(dir); err != nil {
			return nil, err
		}

	default:
		return nil, &UnknownStateError{Dir: dir}
	}

	h.state = state
	h.Dir = target

	if h, err = c.finishResolve(dir, h, opts); err != nil {
		return nil, err
	}

	// Hooks run last so they observe the fully annotated handle:
	// directory, metadata record, parameter snapshot.
	if state == StateFinishedFirst {
		for _, hook := range c.hooks {
			if err := hook(h); err != nil {
				return nil, fmt.Errorf("post-completion hook: %w", err)
			}
		}
	}
	return h, nil
}

// resolveConfigured reconstructs a handle from existing input files:
// the job was set up (possibly by hand, possibly by an earlier run that
// never submitted) but has not run.
func (c *Controller) resolveConfigured(dir string, opts Options) (*Handle, error) {
	h, err := loadConfigured(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Params.Int["images"]; ok {
		return tryLoadNEB(dir)
	}

	if opts.Structure != nil {
		h.Structure = opts.Structure
		return h, nil
	}
	s, err := readInputStructure(dir, h.Resort)
	if err != nil {
		return nil, err
	}
	h.Structure = s
	return h, nil
}

// resolveQueuedWaiting reconstructs a handle from input files only —
// the job has not started, so result files cannot be trusted yet.
func (c *Controller) resolveQueuedWaiting(dir string, opts Options) (*Handle, error) {
	h, err := loadConfigured(dir)
	if err != nil {
		return nil, err
	}
	h.Queued = true

	if _, ok := h.Params.Int["images"]; ok {
		nh, err := tryLoadNEB(dir)
		if err != nil {
			return nil, err
		}
		nh.Queued = true
		return nh, nil
	}

	if opts.Structure != nil {
		h.Structure = opts.Structure
		if len(h.Sort) == 0 {
			h.Sort, h.Resort = engine.IdentityIndices(opts.Structure.Len())
		}
		return h, nil
	}
	s, err := readInputStructure(dir, h.Resort)
	if err != nil {
		return nil, err
	}
	h.Structure = s
	return h, nil
}

// resolveQueuedRunning fully reloads the job: the engine writes
// incrementally readable results while running.
func (c *Controller) resolveQueuedRunning(dir string, opts Options) (*Handle, error) {
	h, err := loadConfigured(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Params.Int["images"]; ok {
		if h, err = tryLoadNEB(dir); err != nil {
			return nil, err
		}
	} else {
		if h, err = loadFull(dir); err != nil {
			return nil, err
		}
		if opts.Structure != nil {
			h.Structure = opts.Structure
		}
	}
	h.Running = true
	return h, nil
}

// resolveFinishedFirst performs the terminal transition: validate the
// outputs, delete the job-id file and load results. Deleting the
// job-id file is what makes this branch unreachable on the next
// invocation, so the hooks Resolve fires afterwards run exactly once.
func (c *Controller) resolveFinishedFirst(dir string, facts Facts) (*Handle, error) {
	v := &Validator{Log: c.Log}
	if err := v.Validate(dir, facts.JobID); err != nil {
		return nil, err
	}

	if err := os.Remove(filepath.Join(dir, engine.JobIDFile)); err != nil {
		return nil, fmt.Errorf("remove %s: %w", engine.JobIDFile, err)
	}
	c.Log.Info("job finished",
		zap.String("dir", dir), zap.String("job_id", facts.JobID))

	h, err := loadConfigured(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Params.Int["images"]; ok {
		if h, err = tryLoadNEB(dir); err != nil {
			return nil, err
		}
	} else {
		if h, err = loadFull(dir); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// finishResolve applies the cross-cutting post-resolution steps that
// every non-fatal state shares: read the metadata record, take the
// parameter snapshot, apply caller overrides, create metadata for
// non-multi-image jobs, and drop the large cache files unless asked to
// keep them. Cache cleanup runs here, for every state, never inside a
// branch.
func (c *Controller) finishResolve(dir string, h *Handle, opts Options) (*Handle, error) {
	meta, err := engine.ReadMetadata(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	h.Metadata = meta

	h.Snapshot = params.Take(h.Params)

	if err := h.Params.Apply(opts.Overrides); err != nil {
		return nil, err
	}

	if h.Metadata == nil && !h.IsNEB() {
		m := engine.NewMetadata()
		if err := engine.WriteMetadata(dir, m); err != nil {
			return nil, err
		}
		h.Metadata = m
	}

	if !opts.KeepCharge {
		if err := removeIfPresent(filepath.Join(dir, engine.ChargeCacheFile)); err != nil {
			return nil, err
		}
	}
	if !opts.KeepWave {
		if err := removeIfPresent(filepath.Join(dir, engine.WaveCacheFile)); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
