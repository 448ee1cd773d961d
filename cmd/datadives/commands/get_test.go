package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCommand(t *testing.T) {
	cfg := testConfig(t, "CLASSY_API_KEY=abc123\nDB_PASSWORD=hunter2\n")

	var out bytes.Buffer
	cmd := NewGetCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env", "local", "--var", "CLASSY_API_KEY"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "abc123\n", out.String())
}

func TestGetCommandMissingVariable(t *testing.T) {
	cfg := testConfig(t, "CLASSY_API_KEY=abc123\n")

	cmd := NewGetCommand(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env", "local", "--var", "NOPE"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable not found")
}

func TestGetCommandRequiresFlags(t *testing.T) {
	cfg := testConfig(t, "CLASSY_API_KEY=abc123\n")

	for _, args := range [][]string{
		{"--var", "CLASSY_API_KEY"},
		{"--env", "local"},
	} {
		cmd := NewGetCommand(cfg)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	}
}

func TestReadValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "secret", "secret"},
		{"trailing newline trimmed", "secret\n", "secret"},
		{"multiline preserved", "line1\nline2\n", "line1\nline2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readValue(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
