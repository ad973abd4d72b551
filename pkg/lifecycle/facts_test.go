package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkshenton/jasp/pkg/engine"
)

// fakeQueue is a canned-answer scheduler for tests.
type fakeQueue struct {
	contains bool
	err      error
	queries  []string
}

func (q *fakeQueue) Contains(_ context.Context, jobID string) (bool, error) {
	q.queries = append(q.queries, jobID)
	return q.contains, q.err
}

func writeJobFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestGatherEmptyDir(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{}

	f, err := Gather(context.Background(), dir, q)
	require.NoError(t, err)

	assert.Equal(t, Facts{}, f)
	assert.Empty(t, q.queries, "no job id, no queue query")
}

func TestGatherQueriesQueueOnlyWithJobID(t *testing.T) {
	dir := t.TempDir()
	writeJobFile(t, dir, engine.InputFile, "ENCUT = 350\n")
	writeJobFile(t, dir, engine.JobIDFile, "98765.sched.example.com\n")
	q := &fakeQueue{contains: true}

	f, err := Gather(context.Background(), dir, q)
	require.NoError(t, err)

	assert.True(t, f.HasInput)
	assert.True(t, f.HasJobID)
	assert.Equal(t, "98765", f.JobID, "dotted host suffix stripped")
	assert.True(t, f.InQueue)
	assert.Equal(t, []string{"98765"}, q.queries)
}

func TestGatherQueueErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeJobFile(t, dir, engine.InputFile, "ENCUT = 350\n")
	writeJobFile(t, dir, engine.JobIDFile, "11\n")
	q := &fakeQueue{err: errors.New("scheduler down")}

	_, err := Gather(context.Background(), dir, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler down")
}

func TestGatherOutputMarkers(t *testing.T) {
	dir := t.TempDir()
	writeJobFile(t, dir, engine.InputFile, "ENCUT = 350\n")
	writeJobFile(t, dir, engine.ResultFile, "result\n")
	writeJobFile(t, dir, engine.LogFile, "log\n")
	writeJobFile(t, dir, engine.ArchiveFile, "<xml/>\n")

	f, err := Gather(context.Background(), dir, &fakeQueue{})
	require.NoError(t, err)

	assert.True(t, f.HasResult)
	assert.True(t, f.HasLog)
	assert.True(t, f.HasArchive)
	assert.False(t, f.HasJobID)
}

func TestReadJobID(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"plain id", "12345\n", "12345", false},
		{"dotted suffix stripped", "12345.scheduler.host\n", "12345", false},
		{"first line only", "777\nsecond line\n", "777", false},
		{"surrounding whitespace", "  42  \n", "42", false},
		{"empty file", "", "", true},
		{"only a dot", ".\n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeJobFile(t, dir, engine.JobIDFile, tt.content)

			got, err := ReadJobID(dir)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
