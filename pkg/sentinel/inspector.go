// Package sentinel provides read-only probes over a job directory's
// file set.
//
// Every call re-reads the filesystem. Job directories are mutated by an
// out-of-process worker, so any cached fact can go stale between two
// classifications and drive an incorrect transition. The probes are
// deliberately primitive: existence, emptiness, last line, tail. What
// those facts mean is the lifecycle controller's business.
package sentinel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError reports that a probed file does not exist. It is a
// distinct condition from emptiness: a missing result file and an empty
// result file classify differently downstream.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sentinel file not found: %s", e.Path)
}

// Has reports whether the named file exists in dir.
func Has(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// IsEmpty reports whether the named file has zero length. A missing
// file is a *NotFoundError, never "empty": callers must check existence
// first if absence is acceptable.
func IsEmpty(dir, name string) (bool, error) {
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, &NotFoundError{Path: filepath.Join(dir, name)}
		}
		return false, err
	}
	return info.Size() == 0, nil
}

// LastLine returns the final non-empty line of the named file, with
// trailing whitespace trimmed. Returns *NotFoundError if the file is
// absent and "" if the file has no content.
func LastLine(dir, name string) (string, error) {
	lines, err := TailLines(dir, name, 1)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// TailLines returns up to n trailing non-empty lines of the named file
// in file order. Returns *NotFoundError if the file is absent.
//
// Files here are small enough (logs capped by the engine, sentinel
// files a few bytes) that reading whole content is fine; no seek games.
func TailLines(dir, name string, n int) ([]string, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}

	raw := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	var lines []string
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, " \t"))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
