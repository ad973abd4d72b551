package hooks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/lifecycle"
)

func TestNewFinishedEvent(t *testing.T) {
	h := &lifecycle.Handle{
		Dir: "/calcs/si",
		Metadata: &engine.Metadata{
			UUID:     "abc-123",
			Hostname: "node42",
		},
	}

	ev := NewFinishedEvent(h)
	assert.Equal(t, "/calcs/si", ev.Dir)
	assert.Equal(t, "abc-123", ev.UUID)
	assert.Equal(t, "node42", ev.Hostname)
	assert.False(t, ev.TS.IsZero())
}

func TestNewFinishedEventWithoutMetadata(t *testing.T) {
	ev := NewFinishedEvent(&lifecycle.Handle{Dir: "/calcs/ge"})
	assert.Equal(t, "/calcs/ge", ev.Dir)
	assert.Empty(t, ev.UUID)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "uuid", "empty fields stay off the wire")
}

func TestNewArchiverRequiresBucket(t *testing.T) {
	_, err := NewArchiver(context.Background(), ArchiveConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestNewArchiverStaticCredentials(t *testing.T) {
	a, err := NewArchiver(context.Background(), ArchiveConfig{
		Bucket:          "results",
		Prefix:          "jasp",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		ForcePathStyle:  true,
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}
