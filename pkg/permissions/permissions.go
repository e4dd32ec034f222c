// Package permissions temporarily relaxes file permission bits around an
// operation and restores the original bits afterwards.
//
// The read-modify-restore sequence is not atomic. Callers must not use it on
// the same path from several goroutines or processes at once.
package permissions

//go:generate mockgen -source=permissions.go -destination=mocks/mode_changer.go -package=mocks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Common permission masks.
const (
	OwnerRead  os.FileMode = 0o400
	OwnerWrite os.FileMode = 0o200
	OwnerExec  os.FileMode = 0o100
)

// restorableBits are the mode bits recorded and put back by a Guard.
const restorableBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// ModeChanger is the filesystem seam used to read and change permission bits.
type ModeChanger interface {
	Stat(name string) (fs.FileInfo, error)
	Chmod(name string, mode os.FileMode) error
}

type osModeChanger struct{}

func (osModeChanger) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (osModeChanger) Chmod(name string, mode os.FileMode) error { return os.Chmod(name, mode) }

// PathFunc is an operation on the file at path.
type PathFunc func(path string) error

// Manager applies scoped permission changes through a ModeChanger.
type Manager struct {
	fs ModeChanger
}

// NewManager creates a Manager backed by the operating system.
func NewManager() *Manager {
	return &Manager{fs: osModeChanger{}}
}

// NewManagerWithFS creates a Manager backed by fsys.
func NewManagerWithFS(fsys ModeChanger) *Manager {
	return &Manager{fs: fsys}
}

var defaultManager = NewManager()

// Guard remembers a file's original permission bits until Restore is called.
type Guard struct {
	fs       ModeChanger
	path     string
	original os.FileMode
	restored bool
}

// Acquire records the permission bits of path and adds mask to them.
func (m *Manager) Acquire(path string, mask os.FileMode) (*Guard, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	original := info.Mode() & restorableBits

	if err := m.fs.Chmod(path, original|mask.Perm()); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return &Guard{fs: m.fs, path: path, original: original}, nil
}

// Original returns the recorded permission bits.
func (g *Guard) Original() os.FileMode {
	return g.original
}

// Restore puts the recorded permission bits back. Calling it again is a no-op.
func (g *Guard) Restore() error {
	if g.restored {
		return nil
	}
	if err := g.fs.Chmod(g.path, g.original); err != nil {
		return fmt.Errorf("failed to restore permissions on %s: %w", g.path, err)
	}
	g.restored = true
	return nil
}

// EnsurePermissions returns a decorator that runs fn with mask added to the
// target file's permission bits and restores them on every exit path.
func (m *Manager) EnsurePermissions(mask os.FileMode) func(PathFunc) PathFunc {
	return func(fn PathFunc) PathFunc {
		return func(path string) error {
			_, err := withPermissions(m, path, mask, func(p string) (struct{}, error) {
				return struct{}{}, fn(p)
			})
			return err
		}
	}
}

// EnsureWritable decorates fn so the owner can write the target file while it runs.
func (m *Manager) EnsureWritable(fn PathFunc) PathFunc {
	return m.EnsurePermissions(OwnerWrite)(fn)
}

// withPermissions is the value-returning core shared by the decorators.
// Errors from fn and from the restore are joined so neither is lost.
func withPermissions[T any](m *Manager, path string, mask os.FileMode, fn func(string) (T, error)) (result T, err error) {
	guard, err := m.Acquire(path, mask)
	if err != nil {
		return result, err
	}
	defer func() {
		if restoreErr := guard.Restore(); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
	}()
	return fn(path)
}

// WithPermissions runs fn on path with mask added to its permission bits,
// using m, and returns fn's value.
func WithPermissions[T any](m *Manager, path string, mask os.FileMode, fn func(string) (T, error)) (T, error) {
	return withPermissions(m, path, mask, fn)
}

// ChmodPerms returns the permission bits of path.
func (m *Manager) ChmodPerms(path string) (os.FileMode, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().Perm(), nil
}

// Acquire records the permission bits of path and adds mask to them.
func Acquire(path string, mask os.FileMode) (*Guard, error) {
	return defaultManager.Acquire(path, mask)
}

// EnsurePermissions returns a decorator adding mask around calls; see Manager.EnsurePermissions.
func EnsurePermissions(mask os.FileMode) func(PathFunc) PathFunc {
	return defaultManager.EnsurePermissions(mask)
}

// EnsureWritable decorates fn so the owner can write the target file while it runs.
func EnsureWritable(fn PathFunc) PathFunc {
	return defaultManager.EnsureWritable(fn)
}

// With runs fn on path with mask added to its permission bits and returns fn's value.
func With[T any](path string, mask os.FileMode, fn func(string) (T, error)) (T, error) {
	return withPermissions(defaultManager, path, mask, fn)
}

// ChmodPerms returns the permission bits of path.
func ChmodPerms(path string) (os.FileMode, error) {
	return defaultManager.ChmodPerms(path)
}
