package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStructure() *Structure {
	return &Structure{
		Comment: "rutile TiO2",
		Cell:    [3][3]float64{{4.6, 0, 0}, {0, 4.6, 0}, {0, 0, 2.95}},
		Species: []string{"Ti", "Ti", "O", "O", "O", "O"},
		Positions: [][3]float64{
			{0, 0, 0},
			{0.5, 0.5, 0.5},
			{0.3, 0.3, 0},
			{0.7, 0.7, 0},
			{0.8, 0.2, 0.5},
			{0.2, 0.8, 0.5},
		},
	}
}

func TestStructureRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), StructureFile)
	want := sampleStructure()

	require.NoError(t, WriteStructure(path, want))
	got, err := ReadStructure(path)
	require.NoError(t, err)

	assert.Equal(t, want.Comment, got.Comment)
	assert.Equal(t, want.Species, got.Species)
	assert.Equal(t, want.Cartesian, got.Cartesian)
	assert.InDelta(t, want.Cell[0][0], got.Cell[0][0], 1e-12)
	require.Equal(t, want.Len(), got.Len())
	for i := range want.Positions {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.Positions[i][j], got.Positions[i][j], 1e-12)
		}
	}
}

func TestReadStructureAppliesScaleFactor(t *testing.T) {
	path := filepath.Join(t.TempDir(), StructureFile)
	content := `scaled cell
2.0
 1.0 0.0 0.0
 0.0 1.0 0.0
 0.0 0.0 1.0
Si
1
Direct
 0.0 0.0 0.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := ReadStructure(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Cell[0][0])
	assert.Equal(t, 2.0, s.Cell[1][1])
}

func TestReadStructureCoordinateModes(t *testing.T) {
	write := func(t *testing.T, mode string) *Structure {
		path := filepath.Join(t.TempDir(), StructureFile)
		content := "c\n1.0\n 1 0 0\n 0 1 0\n 0 0 1\nSi\n1\n" + mode + "\n 0 0 0\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		s, err := ReadStructure(path)
		require.NoError(t, err)
		return s
	}

	assert.True(t, write(t, "Cartesian").Cartesian)
	assert.True(t, write(t, "cartesian").Cartesian)
	assert.True(t, write(t, "K").Cartesian)
	assert.False(t, write(t, "Direct").Cartesian)
	assert.False(t, write(t, "d").Cartesian)
}

func TestReadStructureErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated header", "c\n1.0\n 1 0 0\n"},
		{"bad scale", "c\nxxx\n 1 0 0\n 0 1 0\n 0 0 1\nSi\n1\nDirect\n 0 0 0\n"},
		{"bad counts", "c\n1.0\n 1 0 0\n 0 1 0\n 0 0 1\nSi\nx\nDirect\n 0 0 0\n"},
		{"unknown mode", "c\n1.0\n 1 0 0\n 0 1 0\n 0 0 1\nSi\n1\nZigzag\n 0 0 0\n"},
		{"missing positions", "c\n1.0\n 1 0 0\n 0 1 0\n 0 0 1\nSi\n2\nDirect\n 0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), StructureFile)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := ReadStructure(path)
			assert.Error(t, err)
		})
	}
}

func TestReorder(t *testing.T) {
	s := &Structure{
		Species:   []string{"A", "B", "C"},
		Positions: [][3]float64{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
	}

	out, err := s.Reorder([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, out.Species)
	assert.Equal(t, 3.0, out.Positions[0][0])

	// The source is untouched.
	assert.Equal(t, []string{"A", "B", "C"}, s.Species)
}

func TestReorderRoundTripsThroughInverse(t *testing.T) {
	s := sampleStructure()
	sortIdx := []int{4, 2, 0, 5, 3, 1}
	resort := make([]int, len(sortIdx))
	for i, j := range sortIdx {
		resort[j] = i
	}

	engineOrder, err := s.Reorder(sortIdx)
	require.NoError(t, err)
	back, err := engineOrder.Reorder(resort)
	require.NoError(t, err)
	assert.Equal(t, s.Species, back.Species)
	assert.Equal(t, s.Positions, back.Positions)
}

func TestReorderErrors(t *testing.T) {
	s := &Structure{Species: []string{"A"}, Positions: [][3]float64{{0, 0, 0}}}

	_, err := s.Reorder([]int{0, 1})
	assert.Error(t, err, "length mismatch")

	_, err = s.Reorder([]int{5})
	assert.Error(t, err, "index out of range")
}

func TestSpeciesRuns(t *testing.T) {
	symbols, counts := speciesRuns([]string{"Ti", "Ti", "O", "O", "O", "Ti"})
	assert.Equal(t, []string{"Ti", "O", "Ti"}, symbols)
	assert.Equal(t, []int{2, 3, 1}, counts)
}
