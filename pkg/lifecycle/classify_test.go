package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  State
	}{
		{
			name:  "no input file means empty",
			facts: Facts{},
			want:  StateEmpty,
		},
		{
			name:  "empty wins even with stray markers",
			facts: Facts{HasRunning: true, HasResult: true},
			want:  StateEmpty,
		},
		{
			name:  "input only means configured",
			facts: Facts{HasInput: true},
			want:  StateConfigured,
		},
		{
			name: "configured ignores a stray running flag",
			facts: Facts{
				HasInput:   true,
				HasRunning: true,
			},
			want: StateConfigured,
		},
		{
			name: "in queue without running flag means waiting",
			facts: Facts{
				HasInput: true,
				HasJobID: true,
				JobID:    "12345",
				InQueue:  true,
			},
			want: StateQueuedWaiting,
		},
		{
			name: "in queue with running flag means running",
			facts: Facts{
				HasInput:   true,
				HasJobID:   true,
				JobID:      "12345",
				InQueue:    true,
				HasRunning: true,
			},
			want: StateQueuedRunning,
		},
		{
			name: "running job with partial results stays running",
			facts: Facts{
				HasInput:   true,
				HasJobID:   true,
				InQueue:    true,
				HasRunning: true,
				HasResult:  true,
				HasLog:     true,
			},
			want: StateQueuedRunning,
		},
		{
			name: "job id present but gone from queue is first finish",
			facts: Facts{
				HasInput:  true,
				HasJobID:  true,
				JobID:     "12345",
				HasResult: true,
				HasLog:    true,
			},
			want: StateFinishedFirst,
		},
		{
			name: "first finish does not require output files",
			facts: Facts{
				HasInput: true,
				HasJobID: true,
			},
			want: StateFinishedFirst,
		},
		{
			name: "no job id with all finished markers is observed finish",
			facts: Facts{
				HasInput:   true,
				HasResult:  true,
				HasLog:     true,
				HasArchive: true,
			},
			want: StateFinishedObserved,
		},
		{
			name: "job id present with lingering running flag is unrecognized",
			facts: Facts{
				HasInput:   true,
				HasJobID:   true,
				HasRunning: true,
			},
			want: StateUnrecognized,
		},
		{
			name: "finished markers with lingering running flag is unrecognized",
			facts: Facts{
				HasInput:   true,
				HasRunning: true,
				HasResult:  true,
				HasLog:     true,
				HasArchive: true,
			},
			want: StateUnrecognized,
		},
		{
			name: "result without log and archive is unrecognized",
			facts: Facts{
				HasInput:  true,
				HasResult: true,
			},
			want: StateUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.facts))
		})
	}
}

// Classify must be total: every combination of the boolean facts maps
// to some state, and only combinations the rules name map to a
// non-fatal one.
func TestClassifyIsTotal(t *testing.T) {
	for mask := 0; mask < 1<<7; mask++ {
		f := Facts{
			HasInput:   mask&1 != 0,
			HasJobID:   mask&2 != 0,
			HasRunning: mask&4 != 0,
			InQueue:    mask&8 != 0,
			HasResult:  mask&16 != 0,
			HasLog:     mask&32 != 0,
			HasArchive: mask&64 != 0,
		}
		state := Classify(f)
		assert.GreaterOrEqual(t, int(state), int(StateUnrecognized))
		assert.LessOrEqual(t, int(state), int(StateFinishedObserved))
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "configured", StateConfigured.String())
	assert.Equal(t, "queued", StateQueuedWaiting.String())
	assert.Equal(t, "running", StateQueuedRunning.String())

	// Both finished states read the same to the operator.
	assert.Equal(t, "finished", StateFinishedFirst.String())
	assert.Equal(t, "finished", StateFinishedObserved.String())
	assert.Equal(t, "unrecognized", StateUnrecognized.String())
}
