package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAndListDir(t *testing.T) {
	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, "b", "c.txt"), "c")
	WriteFile(t, filepath.Join(dir, "a.txt"), "a")

	assert.Equal(t, []string{"a.txt", "b"}, ListDir(t, dir))
	data, err := os.ReadFile(filepath.Join(dir, "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
}

func TestWriteRawZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips", "raw.zip")
	WriteRawZip(t, path,
		RawEntry{Header: &zip.FileHeader{Name: "../up.txt", Method: zip.Store}, Contents: "up"},
		RawEntry{Header: &zip.FileHeader{Name: "x.txt", Method: zip.Deflate}, Contents: "x"},
	)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "../up.txt", zr.File[0].Name)
	assert.Equal(t, "x.txt", zr.File[1].Name)
}

func TestSetupTestConfig(t *testing.T) {
	path := SetupTestConfig(t, "settings:\n  log_level: debug\n")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "settings:\n  log_level: debug\n", string(data))
}
