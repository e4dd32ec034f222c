// Package config provides configuration management for wheeltools.
// It handles loading, validating and saving the YAML settings that tune the
// command runner, the archive manager, package discovery and logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/glorpus-work/wheeltools/pkg/errutils"
	"github.com/glorpus-work/wheeltools/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"` // debug, info, warn, error
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`            // text, json

	// Command runner. A zero timeout disables the limit.
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"min=0s"`
	CommandDir     string        `yaml:"command_dir,omitempty"`

	// Package discovery
	PackageMarker string `yaml:"package_marker" validate:"required"`

	// Archive extraction: octal bits for entries that store none
	DefaultFileMode string `yaml:"default_file_mode" validate:"filemode"`
}

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "WHEELTOOLS"

// envOverrides mirrors Settings for environment variables. Unset variables
// leave the loaded value alone.
type envOverrides struct {
	LogLevel        string         `split_words:"true"`
	LogFormat       string         `split_words:"true"`
	CommandTimeout  *time.Duration `split_words:"true"`
	CommandDir      string         `split_words:"true"`
	PackageMarker   string         `split_words:"true"`
	DefaultFileMode string         `split_words:"true"`
}

// validate is the shared validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("filemode", func(fl validator.FieldLevel) bool {
		_, err := ParseFileMode(fl.Field().String())
		return err == nil
	})
	return v
}

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultFileModeString = "0644"
	DefaultCommandTimeout = time.Duration(0)
	AppName               = "wheeltools"
	DefaultConfigFileName = "config.yaml"
	YAMLIndent            = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:        DefaultLogLevel,
			LogFormat:       DefaultLogFormat,
			CommandTimeout:  DefaultCommandTimeout,
			PackageMarker:   fsutil.DefaultPackageMarker,
			DefaultFileMode: DefaultFileModeString,
		},
	}
}

// LoadConfig loads configuration from a file and applies the WHEELTOOLS_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
		}
		return fromEnv(DefaultConfig())
	}
	defer func() { _ = file.Close() }()

	config, err := LoadConfigFromReader(file)
	if err != nil {
		return nil, err
	}
	return fromEnv(config)
}

func fromEnv(config *Config) (*Config, error) {
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}
	return config, nil
}

// ApplyEnv overrides settings from WHEELTOOLS_* environment variables, for
// example WHEELTOOLS_LOG_LEVEL or WHEELTOOLS_COMMAND_TIMEOUT.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errutils.Wrap(errutils.ErrConfigEnv, err.Error())
	}

	if env.LogLevel != "" {
		c.Settings.LogLevel = env.LogLevel
	}
	if env.LogFormat != "" {
		c.Settings.LogFormat = env.LogFormat
	}
	if env.CommandTimeout != nil {
		c.Settings.CommandTimeout = *env.CommandTimeout
	}
	if env.CommandDir != "" {
		c.Settings.CommandDir = env.CommandDir
	}
	if env.PackageMarker != "" {
		c.Settings.PackageMarker = env.PackageMarker
	}
	if env.DefaultFileMode != "" {
		c.Settings.DefaultFileMode = env.DefaultFileMode
	}
	return nil
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errutils.Wrap(errutils.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	s := c.Settings
	// Level names are case-insensitive.
	s.LogLevel = strings.ToLower(s.LogLevel)
	s.PackageMarker = strings.TrimSpace(s.PackageMarker)

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].Field() {
	case "LogLevel":
		return errutils.ErrInvalidLogLevelWithDetails(c.Settings.LogLevel)
	case "LogFormat":
		return errutils.ErrInvalidLogFormatWithDetails(c.Settings.LogFormat)
	case "CommandTimeout":
		return errutils.ErrCommandTimeoutNegative
	case "PackageMarker":
		return errutils.ErrEmptyPackageMarker
	case "DefaultFileMode":
		return errutils.ErrInvalidFileModeWithDetails(c.Settings.DefaultFileMode)
	default:
		return fmt.Errorf("%s: %s", verrs[0].Field(), verrs[0].Tag())
	}
}

// FileMode returns the parsed default_file_mode setting.
func (c *Config) FileMode() (os.FileMode, error) {
	return ParseFileMode(c.Settings.DefaultFileMode)
}

// ParseFileMode parses an octal permission string such as "0644" or "0o755".
func ParseFileMode(s string) (os.FileMode, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0o"), "0O")
	if trimmed == "" {
		return 0, errutils.ErrInvalidFileModeWithDetails(s)
	}
	v, err := strconv.ParseUint(trimmed, 8, 32)
	if err != nil || v > fsutil.FileModeMask {
		return 0, errutils.ErrInvalidFileModeWithDetails(s)
	}
	return os.FileMode(v), nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.Settings.PackageMarker == "" {
		c.Settings.PackageMarker = defaults.Settings.PackageMarker
	}
	if c.Settings.DefaultFileMode == "" {
		c.Settings.DefaultFileMode = defaults.Settings.DefaultFileMode
	}
}
