package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindPackageDirs returns the immediate subdirectories of root that contain
// DefaultPackageMarker. See FindPackageDirsWithMarker.
func FindPackageDirs(root string) (map[string]struct{}, error) {
	return FindPackageDirsWithMarker(root, DefaultPackageMarker)
}

// FindPackageDirsWithMarker returns the immediate subdirectories of root that
// directly contain a file named marker. The search is not recursive.
//
// Result paths are root and the subdirectory name joined without cleaning.
// When root is exactly ".", the leading "./" is stripped so results read as
// bare names.
func FindPackageDirsWithMarker(root, marker string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	packageDirs := make(map[string]struct{})
	for _, entry := range entries {
		path := joinRaw(root, entry.Name())

		// Stat rather than entry.IsDir so symlinked directories count.
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		markerInfo, err := os.Stat(filepath.Join(path, marker))
		if err != nil || markerInfo.IsDir() {
			continue
		}

		if root == CurrentDir {
			path = strings.TrimPrefix(path, CurrentDir+string(filepath.Separator))
		}
		packageDirs[path] = struct{}{}
	}
	return packageDirs, nil
}

// joinRaw joins dir and name with a single separator and no cleaning.
func joinRaw(dir, name string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}
