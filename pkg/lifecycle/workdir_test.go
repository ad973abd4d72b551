package lifecycle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInDirRunsInTargetAndRestores(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)
	target := t.TempDir()

	var inside string
	h, err := InDir(target, func() (*Handle, error) {
		inside, _ = os.Getwd()
		return newHandle(), nil
	})
	require.NoError(t, err)

	resolved, _ := filepath.EvalSymlinks(target)
	insideResolved, _ := filepath.EvalSymlinks(inside)
	assert.Equal(t, resolved, insideResolved)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NotNil(t, h)
	assert.NotEmpty(t, h.Dir)
	assert.Equal(t, before, h.OrigDir)
}

func TestInDirRestoresOnError(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)

	sentinelErr := errors.New("resolution failed")
	_, err = InDir(t.TempDir(), func() (*Handle, error) {
		return nil, sentinelErr
	})
	assert.ErrorIs(t, err, sentinelErr, "domain errors pass through untranslated")

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInDirCreatesMissingDirectories(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "c")

	_, err := InDir(target, func() (*Handle, error) {
		return newHandle(), nil
	})
	require.NoError(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInDirAnnotatesHandleOnErrorToo(t *testing.T) {
	target := t.TempDir()

	h, err := InDir(target, func() (*Handle, error) {
		return newHandle(), errors.New("partial failure")
	})
	require.Error(t, err)
	require.NotNil(t, h, "a handle returned alongside an error is still annotated")
	assert.NotEmpty(t, h.Dir)
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandUser("~"))
	assert.Equal(t, filepath.Join(home, "calcs"), expandUser("~/calcs"))
	assert.Equal(t, "/abs/path", expandUser("/abs/path"))
	assert.Equal(t, "rel/~notuser", expandUser("rel/~notuser"))
}
