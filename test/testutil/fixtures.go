// Package testutil holds filesystem fixtures shared by the package tests.
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// SkipIfNoPermissionChecks skips tests that rely on permission bits denying access.
func SkipIfNoPermissionChecks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("Skipping permission test when running as root")
	}
}

// SkipOnWindows skips tests that inspect POSIX permission bits.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}
}

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// ListDir returns the sorted entry names of dir.
func ListDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// RawEntry is one member for WriteRawZip.
type RawEntry struct {
	Header   *zip.FileHeader
	Contents string
}

// WriteRawZip builds a zip with the standard library writer so entries can
// carry arbitrary names and external attributes.
func WriteRawZip(t *testing.T, path string, entries ...RawEntry) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(e.Header)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.Contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// SetupTestConfig writes a config file with the given YAML body into a
// temporary directory and returns its path.
func SetupTestConfig(t *testing.T, body string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return configPath
}
