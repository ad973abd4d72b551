package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/params"
)

// Handle is the in-memory job object returned to the caller. It is
// transient and directory-scoped: the directory's files are the real
// persistent state, and a handle is reconstructed from them on every
// controller invocation.
type Handle struct {
	// Dir is the job directory; OrigDir is where the caller was when
	// it entered the scoped directory context. Both are annotated by
	// InDir.
	Dir     string
	OrigDir string

	Params *params.Groups

	// Structure is the atomic payload in caller order.
	Structure *engine.Structure

	// Sort and Resort translate between caller atom order and engine
	// atom order. Empty slices mean identity.
	Sort   []int
	Resort []int

	// Queued and Running tell the caller not to expect results yet.
	Queued  bool
	Running bool

	// Loaded is set once results have been read from a finished
	// directory.
	Loaded bool

	// NEB is non-nil for multi-image jobs, which have a different
	// on-disk shape (per-image subdirectories).
	NEB *NEBInfo

	// Snapshot is the per-group parameter copy taken after state
	// resolution and before overrides were applied.
	Snapshot params.Snapshot

	// Metadata is the provenance record, when one exists.
	Metadata *engine.Metadata

	state State
}

// State returns the lifecycle state the controller resolved for this
// handle.
func (h *Handle) State() State { return h.state }

// IsNEB reports whether this is a multi-image job.
func (h *Handle) IsNEB() bool { return h.NEB != nil }

// ChangedGroups diffs the current parameters against the
// post-resolution snapshot and reports which groups the invocation
// changed. Consumers use this to invalidate stale finished results.
func (h *Handle) ChangedGroups() []string {
	return params.Diff(h.Snapshot, h.Params)
}

// NEBInfo describes a multi-image job: the number of intermediate
// images and their structures, one per image subdirectory (00, 01, ...).
type NEBInfo struct {
	Images     int
	Structures []*engine.Structure
}

// newHandle returns a fresh, unconfigured handle.
func newHandle() *Handle {
	return &Handle{Params: params.NewGroups()}
}

// loadConfigured reconstructs a handle from input files only: the
// parameter file, the optional sort-index file and the optional k-point
// file. Structure is not read here; the caller decides where it comes
// from.
func loadConfigured(dir string) (*Handle, error) {
	h := newHandle()
	if err := engine.ReadInput(dir, h.Params); err != nil {
		return nil, err
	}

	sortIdx, resortIdx, err := engine.ReadSortIndices(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	h.Sort, h.Resort = sortIdx, resortIdx

	kp, err := engine.ReadKPoints(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if kp != nil {
		h.Params.Input["kpts"] = []int{kp.Mesh[0], kp.Mesh[1], kp.Mesh[2]}
	}

	return h, nil
}

// readInputStructure reads the standard input-structure file and
// reorders it back to caller order through the resort indices. Absence
// is tolerated: the returned structure is nil.
func readInputStructure(dir string, resort []int) (*engine.Structure, error) {
	s, err := engine.ReadStructure(filepath.Join(dir, engine.StructureFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resort) > 0 {
		return s.Reorder(resort)
	}
	return s, nil
}

// loadFull reconstructs a fully-loaded handle from a finished (or
// running) directory: inputs plus the result-snapshot structure.
func loadFull(dir string) (*Handle, error) {
	h, err := loadConfigured(dir)
	if err != nil {
		return nil, err
	}

	s, err := engine.ReadStructure(filepath.Join(dir, engine.ResultFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// While running, the engine may not have written a snapshot
		// yet; fall back to the input structure.
		s, err = engine.ReadStructure(filepath.Join(dir, engine.StructureFile))
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	if s != nil && len(h.Resort) > 0 {
		if s, err = s.Reorder(h.Resort); err != nil {
			return nil, err
		}
	}
	h.Structure = s
	h.Loaded = true
	return h, nil
}

// tryLoadNEB loads an existing multi-image job. Any failure is wrapped
// in *LoadError so the controller can fall back to initializing a fresh
// one — the fallback is deliberate, not a blanket recover.
func tryLoadNEB(dir string) (*Handle, error) {
	h, err := loadConfigured(dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}
	images, ok := h.Params.Int["images"]
	if !ok || images < 1 {
		return nil, &LoadError{Dir: dir, Err: fmt.Errorf("no images parameter in %s", engine.InputFile)}
	}

	info := &NEBInfo{Images: images}
	// Image subdirectories 00..images+1 include the two endpoints.
	for i := 0; i <= images+1; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("%02d", i))
		s, err := engine.ReadStructure(filepath.Join(sub, engine.ResultFile))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, &LoadError{Dir: dir, Err: err}
			}
			s, err = engine.ReadStructure(filepath.Join(sub, engine.StructureFile))
			if err != nil {
				return nil, &LoadError{Dir: dir, Err: err}
			}
		}
		info.Structures = append(info.Structures, s)
	}

	h.NEB = info
	if len(info.Structures) > 0 {
		h.Structure = info.Structures[0]
	}
	return h, nil
}

// initNEB builds a fresh multi-image handle. The image count comes from
// the caller's overrides when present; structures are filled in by the
// caller before triggering. The count goes through the same weak
// coercion as every other parameter, so command-line string values
// work.
func initNEB(structure *engine.Structure, overrides map[string]any) *Handle {
	h := newHandle()
	h.NEB = &NEBInfo{}
	if v, ok := overrides["images"]; ok {
		g := params.NewGroups()
		if err := g.Set("images", v); err == nil {
			h.NEB.Images = g.Int["images"]
		}
	}
	h.Structure = structure
	return h
}
