package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// compareChunkSize is the read size used by CmpContents.
const compareChunkSize = 64 * 1024

// CmpContents reports whether the files at path1 and path2 have exactly the
// same bytes.
func CmpContents(path1, path2 string) (bool, error) {
	f1, err := os.Open(path1)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path1, err)
	}
	defer func() { _ = f1.Close() }()

	f2, err := os.Open(path2)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path2, err)
	}
	defer func() { _ = f2.Close() }()

	info1, err := f1.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path1, err)
	}
	info2, err := f2.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path2, err)
	}
	// Size is only a shortcut for regular files; other files may report 0.
	if info1.Mode().IsRegular() && info2.Mode().IsRegular() && info1.Size() != info2.Size() {
		return false, nil
	}

	buf1 := make([]byte, compareChunkSize)
	buf2 := make([]byte, compareChunkSize)
	for {
		n1, err1 := io.ReadFull(f1, buf1)
		n2, err2 := io.ReadFull(f2, buf2)
		if err := readErr(err1); err != nil {
			return false, fmt.Errorf("failed to read %s: %w", path1, err)
		}
		if err := readErr(err2); err != nil {
			return false, fmt.Errorf("failed to read %s: %w", path2, err)
		}

		if !bytes.Equal(buf1[:n1], buf2[:n2]) {
			return false, nil
		}
		// A short read means EOF on that file; equal chunks mean both ended.
		if n1 < compareChunkSize {
			return true, nil
		}
	}
}

// readErr filters the end-of-file conditions io.ReadFull reports.
func readErr(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}
