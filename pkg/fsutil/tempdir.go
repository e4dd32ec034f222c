package fsutil

import (
	"errors"
	"fmt"
	"os"
)

// InTemporaryDirectory creates a temporary directory, makes it the working
// directory while fn runs, then changes back and removes it. The working
// directory is process-wide, so this must not run concurrently with anything
// relying on it.
func InTemporaryDirectory(fn func(dir string) error) (err error) {
	previous, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	dir, err := os.MkdirTemp("", "wheeltools-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove temporary directory %s: %w", dir, rmErr))
		}
	}()

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to change to %s: %w", dir, err)
	}
	defer func() {
		if cdErr := os.Chdir(previous); cdErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to change back to %s: %w", previous, cdErr))
		}
	}()

	return fn(dir)
}
