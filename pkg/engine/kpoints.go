package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KPoints is the k-point mesh specification.
type KPoints struct {
	Comment string
	// Scheme is the generation scheme line, e.g. "Monkhorst-Pack" or
	// "Gamma".
	Scheme string
	Mesh   [3]int
	Shift  [3]float64
}

// ReadKPoints parses the k-point file in dir. Callers tolerate absence
// by checking os.IsNotExist on the returned error.
func ReadKPoints(dir string) (*KPoints, error) {
	data, err := os.ReadFile(filepath.Join(dir, KPointsFile))
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(data))
	if len(lines) < 4 {
		return nil, fmt.Errorf("%s: truncated file", KPointsFile)
	}

	kp := &KPoints{
		Comment: strings.TrimSpace(lines[0]),
		Scheme:  strings.TrimSpace(lines[2]),
	}
	mesh, err := parseInts(lines[3], 3)
	if err != nil {
		return nil, fmt.Errorf("%s: mesh: %w", KPointsFile, err)
	}
	kp.Mesh = [3]int{mesh[0], mesh[1], mesh[2]}

	if len(lines) >= 5 && strings.TrimSpace(lines[4]) != "" {
		shift, err := parseFloats(lines[4], 3)
		if err != nil {
			return nil, fmt.Errorf("%s: shift: %w", KPointsFile, err)
		}
		kp.Shift = [3]float64{shift[0], shift[1], shift[2]}
	}
	return kp, nil
}

// WriteKPoints writes the automatic-mesh form of the file.
func WriteKPoints(dir string, kp *KPoints) error {
	comment := kp.Comment
	if comment == "" {
		comment = "KPOINTS written by jasp"
	}
	scheme := kp.Scheme
	if scheme == "" {
		scheme = "Monkhorst-Pack"
	}
	content := fmt.Sprintf("%s\n0\n%s\n%d %d %d\n%g %g %g\n",
		comment, scheme,
		kp.Mesh[0], kp.Mesh[1], kp.Mesh[2],
		kp.Shift[0], kp.Shift[1], kp.Shift[2])
	return writeFileAtomic(filepath.Join(dir, KPointsFile), []byte(content))
}
