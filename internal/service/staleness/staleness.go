// Package staleness asks the host whether the running kernel or loaded shared
// libraries are older than the installed ones.
package staleness

import (
	"context"
	"strings"

	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/service/executor"
)

// NoRebootSentinel is the only output that means a reboot is not needed.
const NoRebootSentinel = "Reboot should not be necessary."

// Checker reports whether a reboot is recommended.
type Checker interface {
	RebootRecommended(ctx context.Context) (bool, error)
}

// CommandChecker runs `needs-restarting -r` (or a configured equivalent) and
// parses its text. The exit code is not the signal: the query is considered
// negative only when the sentinel phrase is present, and anything else,
// failures included, recommends a reboot.
type CommandChecker struct {
	// runner executes the query.
	runner executor.Runner
	// argv is the query command line.
	argv []string
}

// NewCommandChecker creates a checker running argv.
func NewCommandChecker(runner executor.Runner, argv []string) *CommandChecker {
	return &CommandChecker{
		runner: runner,
		argv:   argv,
	}
}

// RebootRecommended implements Checker.
func (c *CommandChecker) RebootRecommended(ctx context.Context) (bool, error) {
	if len(c.argv) == 0 {
		logger.Warn(ctx, "No staleness query configured, assuming a reboot is needed")
		return true, nil
	}

	output, err := c.runner.Run(ctx, c.argv[0], c.argv[1:]...)
	if err != nil {
		logger.DebugKV(ctx, "Staleness query exited with an error", "error", err)
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return !Contains(output), nil
}

// Contains reports whether the query output carries the sentinel phrase.
func Contains(output []byte) bool {
	return strings.Contains(string(output), NoRebootSentinel)
}
