package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		wantOut   []string
		wantNoOut []string
	}{
		{
			name:      "default version",
			version:   "0.1.0",
			commit:    "unknown",
			wantOut:   []string{"dqstudio v0.1.0", "rule authoring"},
			wantNoOut: []string{"commit"},
		},
		{
			name:    "release build",
			version: "1.2.3",
			commit:  "abc123",
			wantOut: []string{"dqstudio v1.2.3", "commit abc123, built 2026-01-01"},
		},
		{
			name:    "dev version",
			version: "dev",
			wantOut: []string{"dqstudio vdev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version, tt.commit, "2026-01-01")
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())

			out := buf.String()
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.wantNoOut {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test", "", "")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
