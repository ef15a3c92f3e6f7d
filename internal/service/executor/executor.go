package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/node-patcher/internal/logger"
)

// Runner executes one external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError is returned when a command ran but exited with a non-zero code,
// or could not be started at all (ExitCode is then -1).
type CommandError struct {
	// Name is the executable.
	Name string
	// Args are the arguments passed to it.
	Args []string
	// ExitCode is the process exit code.
	ExitCode int
	// Output is the combined stdout and stderr.
	Output []byte
	// Err is the underlying error from os/exec.
	Err error
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: exit code %d: %v", e.Name, strings.Join(e.Args, " "), e.ExitCode, e.Err)
}

// Unwrap exposes the os/exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCodeOf returns the exit code carried by err, if any.
func ExitCodeOf(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode, true
	}

	return 0, false
}

// Option configures an Exec runner.
type Option func(*Exec)

// WithTimeout bounds every command run by the runner.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Exec) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(e *Exec) {
		e.env = append(e.env, env...)
	}
}

// Exec runs commands through os/exec.
type Exec struct {
	// timeout bounds a single command; zero means no bound.
	timeout time.Duration
	// env is appended to os.Environ for every command.
	env []string
}

// New creates an Exec runner.
func New(opts ...Option) *Exec {
	e := new(Exec)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes the command synchronously and captures stdout and stderr together.
func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	//nolint:gosec // Commands come from the operator's configuration.
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}

	logger.DebugKV(ctx, "Executing command", "command", name, "args", args)

	started := time.Now()
	output, err := cmd.CombinedOutput()

	logger.DebugKV(ctx, "Command finished",
		"command", name,
		"exit_code", cmd.ProcessState.ExitCode(),
		"duration", time.Since(started).String(),
		"output", string(output))

	if err == nil {
		return output, nil
	}

	cmdErr := &CommandError{
		Name:     name,
		Args:     args,
		ExitCode: -1,
		Output:   output,
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}

	return output, cmdErr
}
