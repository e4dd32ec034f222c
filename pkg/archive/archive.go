// Package archive packs directory trees into zip archives and unpacks them
// again, keeping the POSIX permission bits of every file.
//
// Permission bits travel in the high 16 bits of each entry's external
// attributes, the usual zip-on-Unix encoding. Only regular files become
// entries; directories are implied by entry paths and recreated on unpack.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archives"
	"github.com/opencontainers/go-digest"

	"github.com/glorpus-work/wheeltools/internal/logger"
	"github.com/glorpus-work/wheeltools/pkg/errutils"
	"github.com/glorpus-work/wheeltools/pkg/fsutil"
)

// Entry describes one member of a zip archive.
type Entry struct {
	Name  string
	Mode  os.FileMode
	Size  int64
	IsDir bool
	// Digest is the canonical content digest of a regular file entry.
	Digest digest.Digest
}

// Manager handles zip archive creation and extraction.
type Manager struct {
	defaultFileMode os.FileMode
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultFileMode sets the permission bits given to extracted files whose
// entry stores none.
func WithDefaultFileMode(mode os.FileMode) Option {
	return func(am *Manager) { am.defaultFileMode = mode.Perm() }
}

// NewManager creates a new Manager instance.
func NewManager(opts ...Option) *Manager {
	am := &Manager{defaultFileMode: fsutil.FileModeDefault}
	for _, opt := range opts {
		opt(am)
	}
	return am
}

func (am *Manager) format() archives.Zip {
	return archives.Zip{Compression: zip.Deflate}
}

// Dir2Zip writes every regular file below sourceDir into a new zip archive
// at archivePath, overwriting it if present. Entry names are relative to
// sourceDir.
func (am *Manager) Dir2Zip(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}
	info, err := os.Stat(absolutePath)
	if err != nil {
		return fmt.Errorf("failed to stat source directory %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return errutils.Wrapf(errutils.ErrNotDirectory, "source %s", sourceDir)
	}

	// The trailing separator maps the directory's contents, not the directory itself, to the archive root.
	diskFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	archiveFiles := make([]archives.FileInfo, 0, len(diskFiles))
	for _, file := range diskFiles {
		if !file.Mode().IsRegular() {
			continue
		}
		file.NameInArchive = filepath.ToSlash(strings.TrimPrefix(file.NameInArchive, "/"))
		archiveFiles = append(archiveFiles, file)
	}

	// Build in the temp dir so a failed run leaves any existing archive untouched.
	tmp, err := os.CreateTemp("", "wheeltools-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := am.format().Archive(ctx, tmp, archiveFiles); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush archive %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := fsutil.MoveFile(tmpPath, archivePath); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", archivePath, err)
	}

	logger.Debug("created zip archive", logger.Fields{
		"source":  sourceDir,
		"archive": archivePath,
		"entries": len(archiveFiles),
	})
	return nil
}

// Zip2Dir extracts every entry of the zip archive at archivePath below
// destDir, creating destDir and parent directories as needed, and applies the
// permission bits stored in each entry.
func (am *Manager) Zip2Dir(ctx context.Context, archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	defer func() { _ = file.Close() }()

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for destination: %w", err)
	}
	if err := fsutil.EnsureDir(absDest); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	count := 0
	err = am.format().Extract(ctx, file, func(_ context.Context, info archives.FileInfo) error {
		count++
		return am.extractEntry(info, absDest)
	})
	if err != nil {
		return fmt.Errorf("failed to extract archive %s: %w", archivePath, err)
	}

	logger.Debug("extracted zip archive", logger.Fields{
		"archive": archivePath,
		"dest":    destDir,
		"entries": count,
	})
	return nil
}

// Entries lists the members of the zip archive at archivePath in archive
// order without extracting them. Regular file entries carry a digest of
// their contents.
func (am *Manager) Entries(ctx context.Context, archivePath string) ([]Entry, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	err = am.format().Extract(ctx, file, func(_ context.Context, info archives.FileInfo) error {
		entry := Entry{
			Name:  info.NameInArchive,
			Mode:  info.Mode(),
			Size:  info.Size(),
			IsDir: info.IsDir(),
		}
		if info.Mode().IsRegular() {
			d, err := entryDigest(info)
			if err != nil {
				return err
			}
			entry.Digest = d
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	return entries, nil
}

func entryDigest(info archives.FileInfo) (digest.Digest, error) {
	rc, err := info.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open archive entry %s: %w", info.NameInArchive, err)
	}
	defer func() { _ = rc.Close() }()

	d, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return "", fmt.Errorf("failed to digest archive entry %s: %w", info.NameInArchive, err)
	}
	return d, nil
}

// extractEntry writes a single archive entry below destDir.
func (am *Manager) extractEntry(info archives.FileInfo, destDir string) error {
	targetPath, err := entryPath(destDir, info.NameInArchive)
	if err != nil {
		return err
	}
	if targetPath == destDir {
		return nil
	}

	if info.IsDir() {
		return fsutil.EnsureDir(targetPath)
	}
	if !info.Mode().IsRegular() {
		logger.Debug("skipping non-regular archive entry", logger.Fields{"entry": info.NameInArchive})
		return nil
	}

	return am.writeRegularFile(info, targetPath)
}

// writeRegularFile writes the entry's bytes to targetPath, then sets its
// permission bits. Bits are applied after the data is written so entries
// without owner write still extract.
func (am *Manager) writeRegularFile(info archives.FileInfo, targetPath string) error {
	src, err := info.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", info.NameInArchive, err)
	}
	defer func() { _ = src.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", info.NameInArchive, err)
	}

	// An existing read-only file from an earlier extraction would block the create.
	if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", targetPath, err)
	}

	dst, err := fsutil.CreateFilePerm(targetPath, fsutil.FileModePrivate)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy archive entry %s: %w", info.NameInArchive, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", targetPath, err)
	}

	mode := storedPerm(info)
	if mode == 0 {
		mode = am.defaultFileMode
	}
	if err := os.Chmod(targetPath, mode); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	return nil
}

// storedPerm returns the Unix permission bits recorded in the entry's
// external attributes. Zero means the entry carries none.
func storedPerm(info archives.FileInfo) os.FileMode {
	switch hdr := info.Header.(type) {
	case zip.FileHeader:
		return os.FileMode(hdr.ExternalAttrs>>16) & fs.ModePerm
	case *zip.FileHeader:
		return os.FileMode(hdr.ExternalAttrs>>16) & fs.ModePerm
	}
	return 0
}

// entryPath resolves an entry name below destDir, rejecting names that would
// land outside it.
func entryPath(destDir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errutils.ErrEntryOutsideDestination(name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errutils.ErrEntryOutsideDestination(name)
	}
	return target, nil
}
