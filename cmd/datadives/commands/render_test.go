package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classy-org/data-dives/internal/config"
	"github.com/classy-org/data-dives/internal/logging"
)

// testConfig writes a datadives.yaml with one file-backed environment and
// the .env file it points at.
func testConfig(t *testing.T, envContents string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	envFile := filepath.Join(dir, "secrets.env")
	require.NoError(t, os.WriteFile(envFile, []byte(envContents), 0o600))

	configPath := filepath.Join(dir, "datadives.yaml")
	configData := "version: 1\nenvs:\n  local:\n    env_file: " + envFile + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0o644))

	return &config.Config{
		Path:   configPath,
		Logger: logging.New(false, true),
	}
}

func TestRenderCommand(t *testing.T) {
	cfg := testConfig(t, "B_1=z\nA_2=y\nA_1=x\n")
	out := filepath.Join(t.TempDir(), ".env.local")

	cmd := NewRenderCommand(cfg)
	cmd.SetArgs([]string{"--env", "local", "--out", out, "--sections"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A_1 = x\nA_2 = y\n\nB_1 = z\n", string(data))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRenderCommandUnsectioned(t *testing.T) {
	cfg := testConfig(t, "B_1=z\nA_1=x\n")
	out := filepath.Join(t.TempDir(), ".env.local")

	cmd := NewRenderCommand(cfg)
	cmd.SetArgs([]string{"--env", "local", "--out", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n\n")
}

func TestRenderCommandRequiresFlags(t *testing.T) {
	cfg := testConfig(t, "A_1=x\n")

	t.Run("missing env", func(t *testing.T) {
		cmd := NewRenderCommand(cfg)
		cmd.SetArgs([]string{"--out", filepath.Join(t.TempDir(), ".env")})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		assert.Error(t, cmd.Execute())
	})

	t.Run("missing out", func(t *testing.T) {
		cmd := NewRenderCommand(cfg)
		cmd.SetArgs([]string{"--env", "local"})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		err := cmd.Execute()
		assert.ErrorContains(t, err, "--out")
	})
}

func TestRenderCommandUnknownEnvironment(t *testing.T) {
	cfg := testConfig(t, "A_1=x\n")

	cmd := NewRenderCommand(cfg)
	cmd.SetArgs([]string{"--env", "nope", "--out", filepath.Join(t.TempDir(), ".env")})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.ErrorContains(t, err, "environment not found")
}
