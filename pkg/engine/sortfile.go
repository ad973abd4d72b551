package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadSortIndices parses the sort-index file: two columns of integers
// per line, mapping caller atom order to engine order and back. Callers
// tolerate absence with os.IsNotExist; absence means identity ordering.
func ReadSortIndices(dir string) (sortIdx, resortIdx []int, err error) {
	data, err := os.ReadFile(filepath.Join(dir, SortFile))
	if err != nil {
		return nil, nil, err
	}
	for lineno, line := range splitLines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("%s:%d: expected two columns, got %d", SortFile, lineno+1, len(fields))
		}
		s, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", SortFile, lineno+1, err)
		}
		r, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", SortFile, lineno+1, err)
		}
		sortIdx = append(sortIdx, s)
		resortIdx = append(resortIdx, r)
	}
	return sortIdx, resortIdx, nil
}

// WriteSortIndices writes the two-column sort-index file.
func WriteSortIndices(dir string, sortIdx, resortIdx []int) error {
	if len(sortIdx) != len(resortIdx) {
		return fmt.Errorf("%s: sort and resort lengths differ (%d vs %d)", SortFile, len(sortIdx), len(resortIdx))
	}
	var b strings.Builder
	for i := range sortIdx {
		fmt.Fprintf(&b, "%d %d\n", sortIdx[i], resortIdx[i])
	}
	return writeFileAtomic(filepath.Join(dir, SortFile), []byte(b.String()))
}

// IdentityIndices returns identity sort/resort arrays for n atoms.
func IdentityIndices(n int) (sortIdx, resortIdx []int) {
	sortIdx = make([]int, n)
	resortIdx = make([]int, n)
	for i := 0; i < n; i++ {
		sortIdx[i] = i
		resortIdx[i] = i
	}
	return sortIdx, resortIdx
}
