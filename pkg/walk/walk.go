// Package walk discovers job directories under one or more roots.
//
// A directory qualifies when it has the shape of a configured job:
// either the full single-job input set, or a multi-image input set
// whose parameter file names an IMAGES count. Discovery is scoped with
// doublestar include/exclude globs applied to the path relative to the
// walked root.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/sentinel"
)

// IsJobDir reports whether path looks like a job directory: structure,
// parameter, k-point and potential files all present, or the
// multi-image shape (no top-level structure file, but a parameter file
// mentioning IMAGES).
func IsJobDir(path string) bool {
	hasInput := sentinel.Has(path, engine.InputFile)
	hasKPoints := sentinel.Has(path, engine.KPointsFile)
	hasPotential := sentinel.Has(path, engine.PotentialFile)
	if !hasInput || !hasKPoints || !hasPotential {
		return false
	}
	if sentinel.Has(path, engine.StructureFile) {
		return true
	}

	data, err := os.ReadFile(filepath.Join(path, engine.InputFile))
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToUpper(string(data)), "IMAGES")
}

// Finder discovers job directories.
type Finder struct {
	// Recursive walks below each root; otherwise only the roots
	// themselves are considered.
	Recursive bool

	// Includes and Excludes are doublestar globs matched against the
	// slash-separated path relative to the walked root. Empty
	// Includes means everything is included.
	Includes []string
	Excludes []string
}

// Find returns the qualifying job directories under roots, in walk
// order. Roots that are not directories are skipped.
func (f *Finder) Find(roots []string) ([]string, error) {
	if err := f.validatePatterns(); err != nil {
		return nil, err
	}

	var out []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}

		if !f.Recursive {
			if f.allowed(".") && IsJobDir(root) {
				out = append(out, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !f.allowed(filepath.ToSlash(rel)) {
				return nil
			}
			if IsJobDir(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *Finder) validatePatterns() error {
	for _, p := range append(append([]string{}, f.Includes...), f.Excludes...) {
		if !doublestar.ValidatePattern(p) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

func (f *Finder) allowed(rel string) bool {
	for _, p := range f.Excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	if len(f.Includes) == 0 {
		return true
	}
	for _, p := range f.Includes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// PatternError reports an invalid glob pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid glob pattern: " + e.Pattern
}
