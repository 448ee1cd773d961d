package secrets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// FindDotenv searches startDir and then each parent directory up to the
// filesystem root for a .env file, returning the first match. A missing
// file anywhere on the path is not an error; the empty string means no
// .env was found. A startDir that does not exist is an error.
func FindDotenv(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, ".env")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// WriteFile renders the SecretMap as a dotenv file, one "key = value" line
// per entry, with owner-only permissions.
//
// When sectionSplit is non-empty, keys are sorted so same-prefix keys are
// contiguous and sectionSplit is written before each new prefix group
// (never before the first). The prefix is the part of the key before the
// first '_'. When sectionSplit is empty, entries keep the SecretMap's
// insertion order with no separators.
func WriteFile(path string, m *SecretMap, sectionSplit string) error {
	keys := m.Keys()
	if sectionSplit != "" {
		sort.Strings(keys)
	}

	var buf bytes.Buffer
	prevPrefix := ""
	for i, key := range keys {
		if sectionSplit != "" {
			if prefix := keyPrefix(key); prefix != prevPrefix {
				prevPrefix = prefix
				if i > 0 {
					buf.WriteString(sectionSplit)
				}
			}
		}
		value, _ := m.Get(key)
		fmt.Fprintf(&buf, "%s = %s\n", key, value)
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// keyPrefix returns the part of key before the first '_'
func keyPrefix(key string) string {
	prefix, _, _ := strings.Cut(key, "_")
	return prefix
}

// readDotenv parses a dotenv file without touching the process environment.
// Parse errors propagate from the parser untranslated.
func readDotenv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}
