// Package command runs shell command strings and captures their output.
//
// Commands are parsed and interpreted by an in-process POSIX shell
// (mvdan.cc/sh), so behaviour does not depend on the host's /bin/sh. External
// programs named in the command are executed with the process environment.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/glorpus-work/wheeltools/internal/logger"
	"github.com/glorpus-work/wheeltools/pkg/errutils"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result holds the captured streams of a finished command.
type Result struct {
	Command  string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// StdoutString returns stdout with surrounding whitespace removed.
func (r *Result) StdoutString() string {
	return strings.TrimSpace(string(r.Stdout))
}

// StderrString returns stderr with surrounding whitespace removed.
func (r *Result) StderrString() string {
	return strings.TrimSpace(string(r.Stderr))
}

// Runner executes command strings. The zero value is not usable; use NewRunner.
type Runner struct {
	dir     string
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithDir sets the working directory commands run in.
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// WithTimeout bounds every run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// NewRunner creates a Runner. By default commands run in the current
// directory with no timeout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd, waits for it and returns both captured streams untrimmed.
// A parse failure or a non-zero exit yields a *errutils.CommandError; the
// partial result is still returned alongside it.
func (r *Runner) Run(ctx context.Context, cmd string) (*Result, error) {
	result := &Result{Command: cmd, ExitCode: -1}

	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return result, &errutils.CommandError{Command: cmd, ExitCode: -1, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	}
	if r.dir != "" {
		opts = append(opts, interp.Dir(r.dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return result, &errutils.CommandError{Command: cmd, ExitCode: -1, Err: err}
	}

	logger.Debug("running command", logger.Fields{"command": cmd, "dir": r.dir})

	runErr := runner.Run(ctx, prog)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()

	if runErr != nil {
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			result.ExitCode = int(exitStatus)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = errors.Join(runErr, ctxErr)
		}
		logger.Debug("command failed", logger.Fields{"command": cmd, "exit_code": result.ExitCode})
		return result, &errutils.CommandError{
			Command:  cmd,
			ExitCode: result.ExitCode,
			Stderr:   result.StderrString(),
			Err:      runErr,
		}
	}

	result.ExitCode = 0
	return result, nil
}

// BackTick runs cmd and returns its stdout as trimmed text.
func (r *Runner) BackTick(ctx context.Context, cmd string) (string, error) {
	result, err := r.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return result.StdoutString(), nil
}

// BackTickErr runs cmd and returns stdout and stderr as trimmed text.
func (r *Runner) BackTickErr(ctx context.Context, cmd string) (string, string, error) {
	result, err := r.Run(ctx, cmd)
	if err != nil {
		return "", "", err
	}
	return result.StdoutString(), result.StderrString(), nil
}

// BackTickRaw runs cmd and returns stdout and stderr as trimmed bytes.
func (r *Runner) BackTickRaw(ctx context.Context, cmd string) ([]byte, []byte, error) {
	result, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	return bytes.TrimSpace(result.Stdout), bytes.TrimSpace(result.Stderr), nil
}

// BackTick runs cmd with a default Runner.
func BackTick(ctx context.Context, cmd string) (string, error) {
	return NewRunner().BackTick(ctx, cmd)
}

// BackTickErr runs cmd with a default Runner and returns both streams.
func BackTickErr(ctx context.Context, cmd string) (string, string, error) {
	return NewRunner().BackTickErr(ctx, cmd)
}

// BackTickRaw runs cmd with a default Runner and returns both streams as bytes.
func BackTickRaw(ctx context.Context, cmd string) ([]byte, []byte, error) {
	return NewRunner().BackTickRaw(ctx, cmd)
}
