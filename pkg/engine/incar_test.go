package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkshenton/jasp/pkg/params"
)

func TestInputRoundTrip(t *testing.T) {
	dir := t.TempDir()

	g := params.NewGroups()
	require.NoError(t, g.Set("encut", 350.0))
	require.NoError(t, g.Set("ediff", 1e-6))
	require.NoError(t, g.Set("prec", "Normal"))
	require.NoError(t, g.Set("ibrion", 2))
	require.NoError(t, g.Set("lwave", false))
	require.NoError(t, g.Set("magmom", []float64{1, -1}))

	require.NoError(t, WriteInput(dir, g))

	got := params.NewGroups()
	require.NoError(t, ReadInput(dir, got))

	assert.Equal(t, g.Float, got.Float)
	assert.Equal(t, g.Exp, got.Exp)
	assert.Equal(t, g.String, got.String)
	assert.Equal(t, g.Int, got.Int)
	assert.Equal(t, g.Bool, got.Bool)
	assert.Equal(t, g.List, got.List)
}

func TestReadInputSkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	content := `# written by hand
! fortran-style comment too

ENCUT = 350
LWAVE = .FALSE.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, InputFile), []byte(content), 0o644))

	g := params.NewGroups()
	require.NoError(t, ReadInput(dir, g))
	assert.Equal(t, 350.0, g.Float["encut"])
	assert.Equal(t, false, g.Bool["lwave"])
}

func TestReadInputFortranExponent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, InputFile), []byte("EDIFF = 1.0d-06\n"), 0o644))

	g := params.NewGroups()
	require.NoError(t, ReadInput(dir, g))
	assert.Equal(t, 1e-6, g.Exp["ediff"])
}

func TestReadInputMultiImageKeys(t *testing.T) {
	// A multi-image input file written by another tool carries SPRING
	// and IMAGES; both must survive a read.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, InputFile), []byte("IMAGES = 3\nSPRING = -5\n"), 0o644))

	g := params.NewGroups()
	require.NoError(t, ReadInput(dir, g))
	assert.Equal(t, 3, g.Int["images"])
	assert.Equal(t, -5.0, g.Float["spring"])
}

func TestReadInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing equals", "ENCUT 350\n"},
		{"unknown key", "NOPE = 1\n"},
		{"bad int", "IBRION = two\n"},
		{"bad bool", "LWAVE = maybe\n"},
		{"input-group key has no file form", "KPTS = 4 4 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, InputFile), []byte(tt.content), 0o644))
			assert.Error(t, ReadInput(dir, params.NewGroups()))
		})
	}
}

func TestWriteInputIsSorted(t *testing.T) {
	dir := t.TempDir()
	g := params.NewGroups()
	require.NoError(t, g.Set("sigma", 0.1))
	require.NoError(t, g.Set("encut", 350.0))
	require.NoError(t, g.Set("algo", "Fast"))

	require.NoError(t, WriteInput(dir, g))
	data, err := os.ReadFile(filepath.Join(dir, InputFile))
	require.NoError(t, err)

	assert.Equal(t, "ALGO = Fast\nENCUT = 350\nSIGMA = 0.1\n", string(data))
}
