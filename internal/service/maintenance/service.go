package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/node-patcher/internal/config"
	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/repository/history"
	"github.com/oshokin/node-patcher/internal/service/common"
	"github.com/oshokin/node-patcher/internal/service/decider"
	"github.com/oshokin/node-patcher/internal/service/executor"
	"github.com/oshokin/node-patcher/internal/service/instance"
	"github.com/oshokin/node-patcher/internal/service/packages"
	"github.com/oshokin/node-patcher/internal/service/power"
	"github.com/oshokin/node-patcher/internal/service/remediation"
	"github.com/oshokin/node-patcher/internal/service/staleness"
)

// Executable names of the maintenance binaries, used by the instance guard.
const (
	RebootExecutable    = "node-patch-reboot"
	RemediateExecutable = "node-patch-remediate"
)

// Run executes one maintenance pass and is the public entry point for the CLIs.
func Run(ctx context.Context, opts *Options) error {
	if err := opts.Policy.Validate(); err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = "node-patch"
	}

	ctx = logger.WithName(ctx, name)
	ctx = logger.WithFields(ctx, "run_id", newRunID(), "policy", string(opts.Policy))

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	r := newRunner(cfg, opts)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Maintenance pass failed", "error", err)
		return err
	}

	logger.Info(ctx, "Maintenance pass completed")

	return nil
}

// newRunner wires the production collaborators.
func newRunner(cfg *config.Config, opts *Options) *runner {
	var (
		// The package update is never bounded, every query is.
		updateExec = executor.New()
		queryExec  = executor.New(executor.WithTimeout(cfg.CommandTimeout))
		// The history report is parsed as text, so its language must not vary.
		historyExec = executor.New(executor.WithTimeout(cfg.CommandTimeout), executor.WithEnv("LC_ALL=C"))
	)

	r := &runner{
		policy:      opts.Policy,
		dryRun:      opts.DryRun,
		updater:     packages.NewManager(updateExec, cfg.PackageManager, cfg.UpdateArgs),
		decider:     NewPolicy(opts.Policy, cfg, queryExec, historyExec),
		rebooter:    power.NewShutdown(queryExec, cfg.Reboot.Grace),
		probe:       remediation.FileProbe{},
		artifacts:   cfg.Artifacts(),
		metricsPath: cfg.MetricsTextfile,
		detectHost:  common.DetectHost,
		now:         time.Now,
		newRemediator: func(ctx context.Context) (Remediator, func(), error) {
			restarter, err := remediation.NewRestarter(ctx, cfg.Restart)
			if err != nil {
				return nil, nil, err
			}

			cleanup := func() {
				_ = restarter.Close()
			}

			return remediation.NewLoop(restarter, cfg.Artifacts(), cfg.RetryBudget()), cleanup, nil
		},
	}

	if !opts.Force {
		r.guard = instance.NewGuard(RebootExecutable, RemediateExecutable)
	}

	return r
}

// NewPolicy builds the decision policy. The staged policy reads history
// through historyRunner, which must force the C locale.
//
//nolint:ireturn // The concrete policy depends on the option.
func NewPolicy(policy Policy, cfg *config.Config, queryRunner, historyRunner executor.Runner) decider.Policy {
	checker := staleness.NewCommandChecker(queryRunner, cfg.NeedsRestarting)

	if policy == PolicyStalenessOnly {
		return decider.NewStalenessOnly(checker)
	}

	source := history.NewCommandSource(historyRunner, cfg.PackageManager, cfg.HistoryArgs, time.Local)

	return decider.NewStaged(checker, source, cfg.Prefixes())
}
