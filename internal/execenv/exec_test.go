package execenv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classy-org/data-dives/internal/logging"
	"github.com/classy-org/data-dives/internal/secrets"
)

func testLogger() *logging.Logger {
	return logging.New(false, true)
}

func TestBuildEnvironmentSecretsOverrideInherited(t *testing.T) {
	t.Setenv("DATADIVES_EXEC_TEST", "inherited")

	sm := secrets.NewSecretMap()
	sm.Set("DATADIVES_EXEC_TEST", "resolved")
	sm.Set("DATADIVES_EXEC_NEW", "added")

	env := buildEnvironment(sm)

	assert.Contains(t, env, "DATADIVES_EXEC_TEST=resolved")
	assert.Contains(t, env, "DATADIVES_EXEC_NEW=added")
	assert.NotContains(t, env, "DATADIVES_EXEC_TEST=inherited")
}

func TestBuildEnvironmentNilSecrets(t *testing.T) {
	t.Setenv("DATADIVES_EXEC_KEEP", "kept")

	env := buildEnvironment(nil)
	assert.Contains(t, env, "DATADIVES_EXEC_KEEP=kept")
}

func TestBuildEnvironmentIsSorted(t *testing.T) {
	sm := secrets.NewSecretMap()
	sm.Set("Z_VAR", "1")
	sm.Set("A_VAR", "2")

	env := buildEnvironment(sm)
	sorted := make([]string, len(env))
	copy(sorted, env)
	require.IsIncreasing(t, sorted)
}

func TestRedactedCommandLineScrubsSecretArguments(t *testing.T) {
	t.Parallel()

	sm := secrets.NewSecretMap()
	sm.Set("API_KEY", "hunter2secret")

	line := redactedCommandLine([]string{"curl", "-H", "X-Key: hunter2secret"}, sm)
	assert.NotContains(t, line, "hunter2secret")
	assert.Contains(t, line, "curl")
	assert.Contains(t, line, "[REDACTED]")

	assert.Equal(t, "echo hi", redactedCommandLine([]string{"echo", "hi"}, nil))
}

func TestMaskValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "(empty)"},
		{"short", "ab", "**"},
		{"medium", "abcdef", "a****f"},
		{"long", "abcdefghijkl", "abc********kl"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, maskValue(tt.input))
		})
	}
}

func TestExecRejectsEmptyCommand(t *testing.T) {
	t.Parallel()

	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No command specified")
}

func TestExecRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{
		Command: []string{"datadives-test-no-such-binary"},
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}
