package engine

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewMetadata()
	m.Tags = []string{"surface", "relax"}

	require.NoError(t, WriteMetadata(dir, m))
	got, err := ReadMetadata(dir)
	require.NoError(t, err)

	assert.Equal(t, m.UUID, got.UUID)
	assert.Equal(t, m.Tags, got.Tags)
	assert.Equal(t, m.User, got.User)
	assert.Equal(t, m.Hostname, got.Hostname)
	assert.True(t, m.Created.Equal(got.Created))
}

func TestNewMetadataIsUnique(t *testing.T) {
	a, b := NewMetadata(), NewMetadata()

	_, err := uuid.Parse(a.UUID)
	require.NoError(t, err)
	assert.NotEqual(t, a.UUID, b.UUID)
	assert.False(t, a.Created.IsZero())
}

func TestReadMetadataAbsent(t *testing.T) {
	_, err := ReadMetadata(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}
