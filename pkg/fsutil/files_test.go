package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/glorpus-work/wheeltools/pkg/errutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.zip")
	dstFile := filepath.Join(tempDir, "nested", "destination.zip")

	content := "Hello, World!"
	require.NoError(t, os.WriteFile(srcFile, []byte(content), 0644))

	require.NoError(t, MoveFile(srcFile, dstFile))

	movedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(movedContent))
	assert.NoFileExists(t, srcFile)
}

func TestMoveFile_ReplacesDestination(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "new")
	dstFile := filepath.Join(tempDir, "old")
	require.NoError(t, os.WriteFile(srcFile, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dstFile, []byte("old contents"), 0644))

	require.NoError(t, MoveFile(srcFile, dstFile))

	got, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestMoveFile_Errors(t *testing.T) {
	tempDir := t.TempDir()

	assert.ErrorIs(t, MoveFile("", filepath.Join(tempDir, "dst")), errutils.ErrEmptyPaths)
	assert.ErrorIs(t, MoveFile(filepath.Join(tempDir, "src"), ""), errutils.ErrEmptyPaths)

	err := MoveFile(filepath.Join(tempDir, "missing"), filepath.Join(tempDir, "dst"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Error(t, MoveFile(tempDir, filepath.Join(tempDir, "dst")), "directories are not moved")
}

func TestCopyAcross_PreservesMetadata(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	tempDir := t.TempDir()
	srcFile := filepath.Join(tempDir, "script.sh")
	dstFile := filepath.Join(tempDir, "copied.sh")

	require.NoError(t, os.WriteFile(srcFile, []byte("#!/bin/sh\n"), 0644))
	require.NoError(t, os.Chmod(srcFile, 0750))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(srcFile, mtime, mtime))

	info, err := os.Stat(srcFile)
	require.NoError(t, err)
	require.NoError(t, copyAcross(srcFile, dstFile, info))

	dstInfo, err := os.Stat(dstFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0750), dstInfo.Mode().Perm())
	assert.True(t, mtime.Equal(dstInfo.ModTime()))
	assert.NoFileExists(t, srcFile)
}

func TestIsCrossFilesystemError(t *testing.T) {
	assert.False(t, isCrossFilesystemError(nil))
	assert.False(t, isCrossFilesystemError(errors.New("permission denied")))
	assert.True(t, isCrossFilesystemError(&os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}))
	assert.False(t, isCrossFilesystemError(&os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.ENOENT}))
	assert.True(t, isCrossFilesystemError(errors.New("invalid cross-device link")))
}

func TestCopy(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "destination.txt")

	content := "Copy test content"
	require.NoError(t, os.WriteFile(srcFile, []byte(content), 0644))

	require.NoError(t, Copy(srcFile, dstFile))

	copiedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(copiedContent))
	assert.FileExists(t, srcFile)
}

func TestCreateFilePerm(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")

	file, err := CreateFilePerm(testFile, FileModePrivate)
	require.NoError(t, err)

	_, err = file.WriteString("test content")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FileModePrivate), info.Mode().Perm())
}
