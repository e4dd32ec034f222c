// Package toolkit assembles the wheeltools helpers from a single Config so
// callers share one logger setup, one command runner and one archive manager.
package toolkit

import (
	"fmt"

	"github.com/glorpus-work/wheeltools/internal/logger"
	"github.com/glorpus-work/wheeltools/pkg/archive"
	"github.com/glorpus-work/wheeltools/pkg/command"
	"github.com/glorpus-work/wheeltools/pkg/config"
	"github.com/glorpus-work/wheeltools/pkg/fsutil"
	"github.com/glorpus-work/wheeltools/pkg/permissions"
)

// PackageFinder locates package directories using a fixed marker file.
type PackageFinder struct {
	Marker string
}

// Find returns the package directories below root. See fsutil.FindPackageDirsWithMarker.
func (f PackageFinder) Find(root string) (map[string]struct{}, error) {
	return fsutil.FindPackageDirsWithMarker(root, f.Marker)
}

// Toolkit bundles the configured helpers.
type Toolkit struct {
	Config      *config.Config
	Runner      *command.Runner
	Archives    *archive.Manager
	Permissions *permissions.Manager
	Packages    PackageFinder
}

// New validates cfg, initializes the global logger from it and builds the
// helpers. A nil cfg means the defaults.
func New(cfg *config.Config) (*Toolkit, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.FileMode()
	if err != nil {
		return nil, err
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat))

	runnerOpts := []command.Option{command.WithTimeout(cfg.Settings.CommandTimeout)}
	if cfg.Settings.CommandDir != "" {
		runnerOpts = append(runnerOpts, command.WithDir(cfg.Settings.CommandDir))
	}

	tk := &Toolkit{
		Config:      cfg,
		Runner:      command.NewRunner(runnerOpts...),
		Archives:    archive.NewManager(archive.WithDefaultFileMode(mode)),
		Permissions: permissions.NewManager(),
		Packages:    PackageFinder{Marker: cfg.Settings.PackageMarker},
	}

	logger.Debug("toolkit initialized", logger.Fields{
		"command_timeout":   cfg.Settings.CommandTimeout.String(),
		"package_marker":    cfg.Settings.PackageMarker,
		"default_file_mode": fmt.Sprintf("%#o", mode),
	})
	return tk, nil
}

// Load reads the config at path, or at the default location when path is
// empty, and builds a Toolkit from it.
func Load(path string) (*Toolkit, error) {
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		path = defaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg)
}
