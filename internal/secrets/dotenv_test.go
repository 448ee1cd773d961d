package secrets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classy-org/data-dives/internal/secrets"
)

func TestFindDotenv(t *testing.T) {
	t.Run("found in start dir", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("A=1\n"), 0o600))

		found, err := secrets.FindDotenv(dir)
		require.NoError(t, err)
		assert.Equal(t, envFile, found)
	})

	t.Run("found in parent dir", func(t *testing.T) {
		root := t.TempDir()
		envFile := filepath.Join(root, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("A=1\n"), 0o600))

		nested := filepath.Join(root, "reports", "giving_tuesday")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		found, err := secrets.FindDotenv(nested)
		require.NoError(t, err)
		assert.Equal(t, envFile, found)
	})

	t.Run("nearest file wins", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("A=outer\n"), 0o600))

		nested := filepath.Join(root, "reports")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		inner := filepath.Join(nested, ".env")
		require.NoError(t, os.WriteFile(inner, []byte("A=inner\n"), 0o600))

		found, err := secrets.FindDotenv(nested)
		require.NoError(t, err)
		assert.Equal(t, inner, found)
	})

	t.Run("not found returns empty string", func(t *testing.T) {
		found, err := secrets.FindDotenv(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("missing start dir is an error", func(t *testing.T) {
		_, err := secrets.FindDotenv(filepath.Join(t.TempDir(), "does-not-exist"))
		assert.Error(t, err)
	})
}

func TestWriteFileSectioned(t *testing.T) {
	t.Parallel()

	m := secrets.NewSecretMap()
	// Inserted out of order on purpose; sectioning sorts.
	m.Set("B_1", "z")
	m.Set("A_1", "x")
	m.Set("A_2", "y")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, secrets.WriteFile(path, m, "\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A_1 = x\nA_2 = y\n\nB_1 = z\n", string(data))
}

func TestWriteFileSectionedNoLeadingSeparator(t *testing.T) {
	t.Parallel()

	m := secrets.NewSecretMap()
	m.Set("A_1", "x")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, secrets.WriteFile(path, m, "# ----\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A_1 = x\n", string(data))
}

func TestWriteFileUnsectionedKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	m := secrets.NewSecretMap()
	m.Set("B_1", "z")
	m.Set("A_2", "y")
	m.Set("A_1", "x")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, secrets.WriteFile(path, m, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "B_1 = z\nA_2 = y\nA_1 = x\n", string(data))
}

func TestWriteFilePermissions(t *testing.T) {
	t.Parallel()

	m := secrets.NewSecretMap()
	m.Set("A_1", "x")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, secrets.WriteFile(path, m, ""))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileFailurePropagates(t *testing.T) {
	t.Parallel()

	m := secrets.NewSecretMap()
	m.Set("A_1", "x")

	err := secrets.WriteFile(filepath.Join(t.TempDir(), "missing", ".env"), m, "")
	assert.Error(t, err)
}
