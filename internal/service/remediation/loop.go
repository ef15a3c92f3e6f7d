package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
	"github.com/oshokin/node-patcher/internal/logger"
)

var (
	// ErrRemediationFailed is returned when the artifacts never appeared.
	// The node needs manual intervention.
	ErrRemediationFailed = errors.New("remediation failed: required artifacts still missing")

	// errUnknownRestartKind is returned for restart kinds without an implementation.
	errUnknownRestartKind = errors.New("unknown restart kind")
)

// Restarter restarts the node agent.
type Restarter interface {
	Restart(ctx context.Context) error
	// Name describes the restarted service for logs.
	Name() string
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result summarizes a loop run.
type Result struct {
	// State is the terminal state.
	State maintenance.RemediationState
	// Restarts is the number of restarts issued.
	Restarts int
}

// Loop is the check, restart and wait state machine.
type Loop struct {
	// probe checks the artifacts.
	probe Probe
	// restarter restarts the agent.
	restarter Restarter
	// artifacts must all exist for the loop to succeed.
	artifacts maintenance.ArtifactSet
	// budget bounds the number of cycles and their delay.
	budget maintenance.RetryBudget
	// sleep waits between a restart and the next check.
	sleep Sleeper
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSleeper replaces the context-aware timer sleep.
func WithSleeper(sleep Sleeper) LoopOption {
	return func(l *Loop) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// WithProbe replaces the filesystem probe.
func WithProbe(probe Probe) LoopOption {
	return func(l *Loop) {
		if probe != nil {
			l.probe = probe
		}
	}
}

// NewLoop creates a remediation loop.
func NewLoop(
	restarter Restarter,
	artifacts maintenance.ArtifactSet,
	budget maintenance.RetryBudget,
	opts ...LoopOption,
) *Loop {
	l := &Loop{
		probe:     FileProbe{},
		restarter: restarter,
		artifacts: artifacts,
		budget:    budget,
		sleep:     Sleep,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run drives the loop to a terminal state. A failed loop returns
// ErrRemediationFailed joined with the list of missing artifacts.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	var (
		result  = Result{State: maintenance.StateChecking}
		missing error
	)

	for attempt := 1; attempt <= l.budget.MaxAttempts; attempt++ {
		missing = l.check(ctx, &result)
		if missing == nil {
			return result, nil
		}

		l.transition(ctx, &result, maintenance.StateRestarting)

		logger.InfoKV(ctx, "Required artifacts missing, restarting node agent",
			"service", l.restarter.Name(), "attempt", attempt, "max_attempts", l.budget.MaxAttempts,
			"missing", missing.Error())

		if err := l.restarter.Restart(ctx); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}

			// The next check decides whether the restart helped.
			logger.WarnKV(ctx, "Restart failed", "service", l.restarter.Name(), "error", err)
		}

		result.Restarts++

		l.transition(ctx, &result, maintenance.StateWaiting)

		if err := l.sleep(ctx, l.budget.Delay); err != nil {
			return result, fmt.Errorf("wait for %s to settle: %w", l.restarter.Name(), err)
		}

		l.transition(ctx, &result, maintenance.StateChecking)
	}

	missing = l.check(ctx, &result)
	if missing == nil {
		return result, nil
	}

	l.transition(ctx, &result, maintenance.StateFailed)

	return result, errors.Join(ErrRemediationFailed, missing)
}

// check runs one CHECKING pass and moves to SUCCEEDED when nothing is missing.
func (l *Loop) check(ctx context.Context, result *Result) error {
	missing := l.probe.Missing(ctx, l.artifacts)
	if missing == nil {
		l.transition(ctx, result, maintenance.StateSucceeded)
		logger.InfoKV(ctx, "All required artifacts present", "restarts", result.Restarts)
	}

	return missing
}

func (l *Loop) transition(ctx context.Context, result *Result, next maintenance.RemediationState) {
	logger.DebugKV(ctx, "Remediation state change", "from", result.State.String(), "to", next.String())

	result.State = next
}

// Sleep waits for d unless ctx is canceled first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
