package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InDir runs fn inside dir with guaranteed working-directory restore.
//
// It remembers the process working directory, creates dir (and missing
// parents) if absent, changes into it, runs fn and restores the
// original directory on every exit path — normal return, validator
// failure, fatal state error. Errors from fn are never intercepted or
// translated; callers catch domain errors at the call site.
//
// The returned handle, when non-nil, is annotated with the absolute
// target directory and the original directory.
func InDir(dir string, fn func() (*Handle, error)) (*Handle, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	target, err := filepath.Abs(expandUser(dir))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", target, err)
	}
	if err := os.Chdir(target); err != nil {
		return nil, fmt.Errorf("enter %s: %w", target, err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	h, err := fn()
	if h != nil {
		h.Dir = target
		h.OrigDir = cwd
	}
	return h, err
}

// expandUser replaces a leading ~ with the user's home directory.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
