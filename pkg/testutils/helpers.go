package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTestFile writes content to name inside dir and returns the full path.
func WriteTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// UncreatablePath returns a path below a regular file, so creating it or
// anything inside it fails.
func UncreatablePath(t *testing.T, elem ...string) string {
	t.Helper()
	blocker := WriteTestFile(t, t.TempDir(), "blocker", "")
	return filepath.Join(append([]string{blocker}, elem...)...)
}
