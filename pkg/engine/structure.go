package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Structure is the atomic-structure payload attached to a job handle.
type Structure struct {
	Comment   string
	Cell      [3][3]float64
	Species   []string // one symbol per atom, engine order
	Positions [][3]float64
	Cartesian bool
}

// Len returns the number of atoms.
func (s *Structure) Len() int { return len(s.Positions) }

// Reorder returns a copy of the structure with atoms permuted by idx,
// so that out[i] = in[idx[i]]. Used to translate between caller order
// and engine order via the sort/resort index arrays.
func (s *Structure) Reorder(idx []int) (*Structure, error) {
	if len(idx) != s.Len() {
		return nil, fmt.Errorf("reorder: %d indices for %d atoms", len(idx), s.Len())
	}
	out := &Structure{
		Comment:   s.Comment,
		Cell:      s.Cell,
		Cartesian: s.Cartesian,
		Species:   make([]string, s.Len()),
		Positions: make([][3]float64, s.Len()),
	}
	for i, j := range idx {
		if j < 0 || j >= s.Len() {
			return nil, fmt.Errorf("reorder: index %d out of range", j)
		}
		out.Species[i] = s.Species[j]
		out.Positions[i] = s.Positions[j]
	}
	return out, nil
}

// ReadStructure parses a structure file (POSCAR/CONTCAR layout):
// comment, scale factor, three cell vectors, species line, counts line,
// coordinate mode, then one position per atom.
func ReadStructure(path string) (*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(data))
	if len(lines) < 8 {
		return nil, fmt.Errorf("%s: truncated structure file", filepath.Base(path))
	}

	s := &Structure{Comment: strings.TrimSpace(lines[0])}

	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: bad scale factor: %w", filepath.Base(path), err)
	}

	for i := 0; i < 3; i++ {
		v, err := parseFloats(lines[2+i], 3)
		if err != nil {
			return nil, fmt.Errorf("%s: cell vector %d: %w", filepath.Base(path), i+1, err)
		}
		for j := 0; j < 3; j++ {
			s.Cell[i][j] = v[j] * scale
		}
	}

	symbols := strings.Fields(lines[5])
	counts, err := parseInts(lines[6], len(symbols))
	if err != nil {
		return nil, fmt.Errorf("%s: species counts: %w", filepath.Base(path), err)
	}

	mode := strings.TrimSpace(lines[7])
	if mode == "" {
		return nil, fmt.Errorf("%s: missing coordinate mode", filepath.Base(path))
	}
	switch strings.ToLower(mode)[0] {
	case 'c', 'k':
		s.Cartesian = true
	case 'd':
		s.Cartesian = false
	default:
		return nil, fmt.Errorf("%s: unknown coordinate mode %q", filepath.Base(path), mode)
	}

	total := 0
	for i, n := range counts {
		for j := 0; j < n; j++ {
			s.Species = append(s.Species, symbols[i])
		}
		total += n
	}
	if len(lines) < 8+total {
		return nil, fmt.Errorf("%s: expected %d positions, file ends early", filepath.Base(path), total)
	}
	for i := 0; i < total; i++ {
		v, err := parseFloats(lines[8+i], 3)
		if err != nil {
			return nil, fmt.Errorf("%s: position %d: %w", filepath.Base(path), i+1, err)
		}
		s.Positions = append(s.Positions, [3]float64{v[0], v[1], v[2]})
	}
	return s, nil
}

// WriteStructure writes the structure in the same layout ReadStructure
// parses. The scale factor is always written as 1.0.
func WriteStructure(path string, s *Structure) error {
	var b strings.Builder
	comment := s.Comment
	if comment == "" {
		comment = "structure written by jasp"
	}
	fmt.Fprintln(&b, comment)
	fmt.Fprintln(&b, "1.0")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, " %20.16f %20.16f %20.16f\n", s.Cell[i][0], s.Cell[i][1], s.Cell[i][2])
	}

	symbols, counts := speciesRuns(s.Species)
	fmt.Fprintln(&b, strings.Join(symbols, " "))
	countStrs := make([]string, len(counts))
	for i, n := range counts {
		countStrs[i] = strconv.Itoa(n)
	}
	fmt.Fprintln(&b, strings.Join(countStrs, " "))

	if s.Cartesian {
		fmt.Fprintln(&b, "Cartesian")
	} else {
		fmt.Fprintln(&b, "Direct")
	}
	for _, p := range s.Positions {
		fmt.Fprintf(&b, " %20.16f %20.16f %20.16f\n", p[0], p[1], p[2])
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// speciesRuns collapses the per-atom species list into consecutive runs
// of (symbol, count), the form the file format expects.
func speciesRuns(species []string) ([]string, []int) {
	var symbols []string
	var counts []int
	for _, sym := range species {
		if n := len(symbols); n > 0 && symbols[n-1] == sym {
			counts[n-1]++
			continue
		}
		symbols = append(symbols, sym)
		counts = append(counts, 1)
	}
	return symbols, counts
}

func splitLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	// Drop a single trailing blank produced by a final newline.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func parseFloats(line string, n int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(line string, n int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
