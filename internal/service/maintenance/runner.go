package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/node-patcher/internal/domain/maintenance"
	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/metrics"
	"github.com/oshokin/node-patcher/internal/service/common"
	"github.com/oshokin/node-patcher/internal/service/decider"
	"github.com/oshokin/node-patcher/internal/service/executor"
	"github.com/oshokin/node-patcher/internal/service/packages"
	"github.com/oshokin/node-patcher/internal/service/power"
	"github.com/oshokin/node-patcher/internal/service/remediation"
)

// Guard refuses to run next to another pass.
type Guard interface {
	Check() error
}

// Remediator runs the remediation loop.
type Remediator interface {
	Run(ctx context.Context) (remediation.Result, error)
}

// RemediatorFactory builds the remediator on demand and returns its cleanup.
// Only the staleness-only policy without a reboot ever calls it.
type RemediatorFactory func(ctx context.Context) (Remediator, func(), error)

// runner holds the collaborators of a single pass.
type runner struct {
	// policy selects the follow-up when no reboot is needed.
	policy Policy
	// dryRun replaces reboot and remediation with log lines.
	dryRun bool
	// guard refuses concurrent passes; nil disables it.
	guard Guard
	// updater updates every package.
	updater packages.Updater
	// decider reaches the reboot decision.
	decider decider.Policy
	// rebooter schedules the reboot.
	rebooter power.Rebooter
	// newRemediator builds the remediation loop lazily.
	newRemediator RemediatorFactory
	// probe checks artifacts in dry-run mode.
	probe remediation.Probe
	// artifacts are the required artifacts.
	artifacts domain.ArtifactSet
	// metricsPath is the textfile collector target; empty disables metrics.
	metricsPath string
	// detectHost gathers host facts for the log; nil skips them.
	detectHost func(ctx context.Context) (*common.Host, error)
	// now returns the current time.
	now func() time.Time
	// report accumulates what the pass exports.
	report metrics.Report
	// started is when the pass began.
	started time.Time
	// reported is set once the report reached the textfile.
	reported bool
}

// Run executes one pass. A nil error means the pass ran to completion,
// including the uneventful no-op path.
func (r *runner) Run(ctx context.Context) error {
	r.started = r.now()
	r.report = metrics.Report{Policy: string(r.policy)}
	r.reported = false

	defer r.writeMetrics(ctx)

	if r.guard != nil {
		if err := r.guard.Check(); err != nil {
			return err
		}
	}

	if r.policy.Remediates() && len(r.artifacts) == 0 {
		return fmt.Errorf("policy %s: %w", r.policy, ErrNoRequiredArtifacts)
	}

	r.logHost(ctx)

	if err := r.updater.UpdateAll(ctx); err != nil {
		r.report.Outcome = domain.OutcomeUpdateFailed
		return err
	}

	decision, err := r.decider.Decide(ctx)
	if err != nil {
		return fmt.Errorf("decide reboot: %w", err)
	}

	r.report.Decision = &decision

	logger.InfoKV(ctx, "Reboot decision", "reboot", decision.Reboot, "reason", decision.Reason, "detail", decision.Detail)

	if decision.Reboot {
		return r.reboot(ctx)
	}

	if !r.policy.Remediates() {
		r.report.Outcome = domain.OutcomeNothingToDo
		logger.Info(ctx, "No reboot required, nothing left to do")

		return nil
	}

	return r.remediate(ctx)
}

// reboot is terminal: nothing else runs after the request is issued.
func (r *runner) reboot(ctx context.Context) error {
	if r.dryRun {
		r.report.Outcome = domain.OutcomeDryRun
		logger.Info(ctx, "Dry run: reboot skipped")

		return nil
	}

	// Nothing may run once shutdown has been scheduled, so the report goes first.
	r.report.Outcome = domain.OutcomeRebooting
	r.writeMetrics(ctx)

	if err := r.rebooter.Reboot(ctx); err != nil {
		r.report.Outcome = domain.OutcomeRebootFailed
		r.reported = false

		return err
	}

	logger.Info(ctx, "Reboot scheduled, stopping here")

	return nil
}

func (r *runner) remediate(ctx context.Context) error {
	if r.dryRun {
		r.report.Outcome = domain.OutcomeDryRun

		if missing := r.probe.Missing(ctx, r.artifacts); missing != nil {
			logger.WarnKV(ctx, "Dry run: remediation skipped", "missing", missing.Error())
			return nil
		}

		logger.Info(ctx, "Dry run: all required artifacts present")

		return nil
	}

	remediator, cleanup, err := r.newRemediator(ctx)
	if err != nil {
		return fmt.Errorf("prepare remediation: %w", err)
	}

	defer cleanup()

	result, err := remediator.Run(ctx)
	r.report.Restarts = result.Restarts

	if err != nil {
		if errors.Is(err, remediation.ErrRemediationFailed) {
			r.report.Outcome = domain.OutcomeRemediationFailed
			logger.ErrorKV(ctx, "Node agent did not recover, manual intervention required",
				"restarts", result.Restarts, "error", err)
		}

		return err
	}

	r.report.Outcome = domain.OutcomeNothingToDo
	if result.Restarts > 0 {
		r.report.Outcome = domain.OutcomeRemediated
	}

	logger.InfoKV(ctx, "Node agent healthy", "restarts", result.Restarts)

	return nil
}

func (r *runner) logHost(ctx context.Context) {
	if r.detectHost == nil {
		return
	}

	host, err := r.detectHost(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Could not detect host facts", "error", err)
		return
	}

	logger.InfoKV(ctx, "Starting maintenance pass", host.KV()...)
}

func (r *runner) writeMetrics(ctx context.Context) {
	if r.reported || r.metricsPath == "" || r.report.Outcome == "" {
		return
	}

	r.reported = true

	finished := r.now()
	r.report.Finished = finished
	r.report.Duration = finished.Sub(r.started)

	if err := metrics.WriteTextfile(r.metricsPath, &r.report); err != nil {
		logger.WarnKV(ctx, "Could not write metrics", "path", r.metricsPath, "error", err)
	}
}

// ExitCode maps a pass error to the process exit code: the external command's
// own code when one failed, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if code, ok := executor.ExitCodeOf(err); ok {
		return code
	}

	return 1
}

// newRunID tags every log entry of a pass.
func newRunID() string {
	return uuid.NewString()
}
