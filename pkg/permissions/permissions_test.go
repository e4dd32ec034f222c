package permissions

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glorpus-work/wheeltools/pkg/permissions/mocks"
	"github.com/glorpus-work/wheeltools/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeFile(contents string) PathFunc {
	return func(path string) error {
		return os.WriteFile(path, []byte(contents), 0o644)
	}
}

func statMode(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Mode()
}

func TestEnsurePermissions(t *testing.T) {
	testutil.SkipIfNoPermissionChecks(t)

	dir := t.TempDir()
	readPath := filepath.Join(dir, "test.read")
	writePath := filepath.Join(dir, "test.write")
	require.NoError(t, os.WriteFile(readPath, []byte("A line\n"), 0o644))
	require.NoError(t, os.WriteFile(writePath, []byte("B line"), 0o644))
	require.NoError(t, os.Chmod(readPath, 0))
	require.NoError(t, os.Chmod(writePath, 0))

	before := map[string]os.FileMode{
		readPath:  statMode(t, readPath),
		writePath: statMode(t, writePath),
	}

	// Plain calls fail without permissions
	_, err := readFile(readPath)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.ErrorIs(t, writeFile("continues")(writePath), fs.ErrPermission)

	// Wrong bit still fails, and the error passes through untouched
	_, err = With(readPath, OwnerWrite, readFile)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.ErrorIs(t, EnsurePermissions(OwnerRead)(writeFile("continues"))(writePath), fs.ErrPermission)

	// Right bit succeeds
	contents, err := With(readPath, OwnerRead, readFile)
	require.NoError(t, err)
	assert.Equal(t, "A line\n", contents)

	require.NoError(t, EnsurePermissions(OwnerWrite)(writeFile("continues"))(writePath))
	contents, err = With(writePath, OwnerRead, readFile)
	require.NoError(t, err)
	assert.Equal(t, "continues", contents)

	for path, mode := range before {
		assert.Equal(t, mode, statMode(t, path), path)
		perms, err := ChmodPerms(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0), perms)
	}
}

func TestEnsureWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bin")
	require.NoError(t, os.WriteFile(path, []byte("A line\n"), 0o644))

	var seen os.FileMode
	foo := EnsureWritable(func(p string) error {
		seen = statMode(t, p)
		return nil
	})

	for _, mode := range []os.FileMode{0o644, 0o444, 0o400} {
		require.NoError(t, os.Chmod(path, mode))
		before := statMode(t, path)

		require.NoError(t, foo(path))

		assert.Equal(t, mode|OwnerWrite, seen.Perm(), "owner write bit should be set during the call")
		assert.Equal(t, before, statMode(t, path), "mode should be restored after the call")
	}
}

func TestEnsurePermissions_RestoresOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o444))

	wantErr := errors.New("operation failed")
	err := EnsureWritable(func(string) error { return wantErr })(path)

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, os.FileMode(0o444), statMode(t, path).Perm())
}

func TestEnsurePermissions_RestoresOnPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o444))

	assert.Panics(t, func() {
		_ = EnsureWritable(func(string) error { panic("boom") })(path)
	})
	assert.Equal(t, os.FileMode(0o444), statMode(t, path).Perm())
}

func TestEnsurePermissions_MissingFile(t *testing.T) {
	called := false
	err := EnsureWritable(func(string) error {
		called = true
		return nil
	})(filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, called)
}

func TestGuard_RestoreIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o400))

	guard, err := Acquire(path, OwnerWrite|OwnerExec)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o400), guard.Original())
	assert.Equal(t, os.FileMode(0o700), statMode(t, path).Perm())

	require.NoError(t, guard.Restore())
	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, guard.Restore())
	assert.Equal(t, os.FileMode(0o600), statMode(t, path).Perm(), "second Restore must not chmod again")
}

type fakeFileInfo struct {
	mode os.FileMode
}

func (f fakeFileInfo) Name() string       { return "fake" }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return f.mode }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

func TestManager_JoinsRestoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockModeChanger(ctrl)

	errOp := errors.New("operation failed")
	errRestore := errors.New("chmod failed")

	gomock.InOrder(
		fsys.EXPECT().Stat("pkg.so").Return(fakeFileInfo{mode: 0o444}, nil),
		fsys.EXPECT().Chmod("pkg.so", os.FileMode(0o644)).Return(nil),
		fsys.EXPECT().Chmod("pkg.so", os.FileMode(0o444)).Return(errRestore),
	)

	err := NewManagerWithFS(fsys).EnsureWritable(func(string) error { return errOp })("pkg.so")
	assert.ErrorIs(t, err, errOp)
	assert.ErrorIs(t, err, errRestore)
}

func TestManager_AcquireFailureSkipsCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockModeChanger(ctrl)

	errChmod := errors.New("read-only filesystem")
	fsys.EXPECT().Stat("pkg.so").Return(fakeFileInfo{mode: 0o444}, nil)
	fsys.EXPECT().Chmod("pkg.so", os.FileMode(0o644)).Return(errChmod)

	called := false
	err := NewManagerWithFS(fsys).EnsureWritable(func(string) error {
		called = true
		return nil
	})("pkg.so")

	assert.ErrorIs(t, err, errChmod)
	assert.False(t, called)
}

func TestManager_PreservesSpecialBits(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockModeChanger(ctrl)

	original := os.ModeSetuid | 0o555
	gomock.InOrder(
		fsys.EXPECT().Stat("tool").Return(fakeFileInfo{mode: original}, nil),
		fsys.EXPECT().Chmod("tool", os.ModeSetuid|os.FileMode(0o755)).Return(nil),
		fsys.EXPECT().Chmod("tool", original).Return(nil),
	)

	got, err := WithPermissions(NewManagerWithFS(fsys), "tool", OwnerWrite, func(string) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestManager_ChmodPerms(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockModeChanger(ctrl)

	fsys.EXPECT().Stat("a").Return(fakeFileInfo{mode: os.ModeSetgid | 0o750}, nil)
	fsys.EXPECT().Stat("b").Return(nil, fs.ErrNotExist)

	m := NewManagerWithFS(fsys)
	perms, err := m.ChmodPerms("a")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), perms)

	_, err = m.ChmodPerms("b")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
