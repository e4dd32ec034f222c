// Package errutils provides the error values shared by the wheeltools packages.
// It defines sentinel errors for the common failure cases, the typed error
// returned by the command runner, and small wrapping helpers that add context
// while keeping errors.Is / errors.As working along the chain.
package errutils

import (
	"fmt"
	"strings"
)

// Common error types used throughout the module.
// Errors are grouped by their domain or functionality.
var (
	// ErrCommandExecution is matched by every error returned for a failed shell command.
	ErrCommandExecution = fmt.Errorf("command execution failed")

	// File system errors.

	// ErrInvalidPath is returned when a file or directory path is invalid,
	// including archive entries whose name would escape the destination.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// ErrEmptyPaths is returned when source or destination paths are empty in file operations.
	ErrEmptyPaths = fmt.Errorf("source and destination paths cannot be empty")

	// ErrNotDirectory is returned when a directory was expected.
	ErrNotDirectory = fmt.Errorf("not a directory")

	// Config errors are related to configuration file operations and validation.
	ErrEmptyConfigPath = fmt.Errorf(
		"config file path cannot be empty") // When config file path is empty

	ErrInvalidConfigPath = fmt.Errorf(
		"invalid config file path") // When provided config file path is invalid

	ErrConfigParse = fmt.Errorf(
		"failed to parse config") // When config file cannot be parsed

	// ErrConfigValidation is returned when configuration values fail validation.
	ErrConfigValidation = fmt.Errorf(
		"invalid configuration") // When config values fail validation

	ErrConfigEncode = fmt.Errorf(
		"failed to encode config") // When config cannot be encoded

	ErrConfigDirectory = fmt.Errorf(
		"failed to create config directory") // When config dir cannot be created

	ErrConfigFileCreate = fmt.Errorf(
		"failed to create config file") // When config file cannot be created

	// ErrConfigFileRename is returned when renaming the temporary config file fails.
	ErrConfigFileRename = fmt.Errorf("failed to rename temporary config file")

	// ErrConfigMarshal is returned when marshaling the config to YAML fails.
	ErrConfigMarshal = fmt.Errorf("failed to marshal config to YAML")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrInvalidLogFormat is returned when an invalid log format is specified.
	ErrInvalidLogFormat = fmt.Errorf("invalid log format")

	// ErrInvalidFileMode is returned when a configured file mode is not a valid octal permission.
	ErrInvalidFileMode = fmt.Errorf("invalid file mode")

	// ErrCommandTimeoutNegative is returned when the command timeout is set to a negative value.
	ErrCommandTimeoutNegative = fmt.Errorf("command_timeout cannot be negative")

	// ErrEmptyPackageMarker is returned when the package marker file name is empty.
	ErrEmptyPackageMarker = fmt.Errorf("package_marker cannot be empty")

	// ErrConfigEnv is returned when an environment override cannot be parsed.
	ErrConfigEnv = fmt.Errorf("invalid environment override")
)

// CommandError is returned by the command runner when a command cannot be
// parsed or exits with a non-zero status.
type CommandError struct {
	// Command is the command text as given by the caller.
	Command string
	// ExitCode is the exit status, or -1 when the command never ran.
	ExitCode int
	// Stderr holds the captured standard error, trimmed.
	Stderr string
	// Err is the underlying cause, if any.
	Err error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q", ErrCommandExecution, e.Command)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	} else if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCommandExecution.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandExecution
}

// Wrap wraps an error with additional context.
// This is useful for adding context to errors as they propagate up the call stack.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errutils.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// This is similar to Wrap but allows for formatting the message with fmt.Sprintf-style formatting.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidLogFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidLogFormat, format)
}

// ErrInvalidFileModeWithDetails is a helper to create a wrapped error with the offending mode string.
func ErrInvalidFileModeWithDetails(mode string) error {
	return fmt.Errorf("%w: '%s', must be an octal permission between 0 and 0777", ErrInvalidFileMode, mode)
}

// ErrEntryOutsideDestination creates an error for an archive entry escaping its destination directory.
func ErrEntryOutsideDestination(name string) error {
	return fmt.Errorf("%w: archive entry %q resolves outside the destination", ErrInvalidPath, name)
}
