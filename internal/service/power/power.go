// Package power schedules the host reboot that ends a maintenance pass.
package power

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/service/executor"
)

// ErrUnsupportedOS indicates the current OS is not supported for rebooting.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Rebooter requests a delayed host restart.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Shutdown reboots through `shutdown -r +N`. The request is fire-and-forget:
// the command only schedules the restart and the caller must not start any
// further work once it returned.
type Shutdown struct {
	// runner executes shutdown.
	runner executor.Runner
	// grace is the delay before the restart.
	grace time.Duration
	// goos is the target operating system.
	goos string
}

// NewShutdown creates a rebooter with the given grace period.
func NewShutdown(runner executor.Runner, grace time.Duration) *Shutdown {
	return &Shutdown{
		runner: runner,
		grace:  grace,
		goos:   runtime.GOOS,
	}
}

// Reboot implements Rebooter.
func (s *Shutdown) Reboot(ctx context.Context) error {
	if s.goos != "linux" {
		return fmt.Errorf("reboot on %s: %w", s.goos, ErrUnsupportedOS)
	}

	when := GraceArgument(s.grace)

	logger.InfoKV(ctx, "Scheduling reboot", "when", when)

	if _, err := s.runner.Run(ctx, "shutdown", "-r", when, "node-patch: rebooting after package update"); err != nil {
		return fmt.Errorf("schedule reboot: %w", err)
	}

	return nil
}

// GraceArgument renders the grace period as shutdown's "+minutes" argument,
// rounding up and never going below one minute.
func GraceArgument(grace time.Duration) string {
	minutes := int(math.Ceil(grace.Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf("+%d", minutes)
}
