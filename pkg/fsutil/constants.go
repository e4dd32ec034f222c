package fsutil

// File and directory permission constants.
// These follow standard Unix permission conventions and are used consistently
// throughout the module.
const (
	// FileModeMask is the full permission mask for files.
	FileModeMask = 0o777

	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for regular files
	FileModePrivate = 0o600 // -rw-------: Scratch files while they are being written

	// DirModeDefault is used for directories created by EnsureDir: drwxr-xr-x.
	DirModeDefault = 0o755
)

const (
	// DefaultPackageMarker is the file whose presence makes a directory an importable package.
	DefaultPackageMarker = "__init__.py"

	// CurrentDir is the current-directory token stripped from FindPackageDirs results.
	CurrentDir = "."
)
