package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{"empty", nil, nil, false},
		{
			"single pair",
			[]string{"ENCUT=400"},
			map[string]any{"encut": "400"},
			false,
		},
		{
			"multiple pairs lowercased and trimmed",
			[]string{" Encut = 400 ", "ibrion=2"},
			map[string]any{"encut": "400", "ibrion": "2"},
			false,
		},
		{
			"value may contain equals",
			[]string{"system=a=b"},
			map[string]any{"system": "a=b"},
			false,
		},
		{"missing equals", []string{"encut400"}, nil, true},
		{"empty key", []string{"=400"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOverrides(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitErrorFormat(t *testing.T) {
	err := exitError(3, "Something broke", errors.New("details"))
	assert.EqualError(t, err, "Something broke: details (exit code 3)")
	assert.ErrorContains(t, err, "details")
}
