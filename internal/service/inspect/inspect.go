package inspect

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/oshokin/node-patcher/internal/config"
	domain "github.com/oshokin/node-patcher/internal/domain/maintenance"
	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/repository/history"
	"github.com/oshokin/node-patcher/internal/service/common"
	"github.com/oshokin/node-patcher/internal/service/decider"
	"github.com/oshokin/node-patcher/internal/service/executor"
	"github.com/oshokin/node-patcher/internal/service/maintenance"
	"github.com/oshokin/node-patcher/internal/service/remediation"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// Options are the inputs of the inspect command.
type Options struct {
	// ConfigPath is the YAML configuration; empty means defaults.
	ConfigPath string
	// Policy is the policy whose decision is previewed.
	Policy maintenance.Policy
	// Output receives the report.
	Output io.Writer
}

// inspector holds the read-only collaborators.
type inspector struct {
	// out receives the report.
	out io.Writer
	// policy is the policy name shown in the report.
	policy maintenance.Policy
	// source reads the last transaction.
	source history.Source
	// decider previews the decision.
	decider decider.Policy
	// prefixes mark essential upgrades in the transaction table.
	prefixes domain.PrefixSet
	// artifacts are checked one by one.
	artifacts domain.ArtifactSet
	// probe checks artifact presence.
	probe remediation.Probe
	// detectHost gathers host facts; nil skips them.
	detectHost func(ctx context.Context) (*common.Host, error)
	// now returns the current time.
	now func() time.Time
}

// Run prints the preview. Nothing is updated, rebooted or restarted.
func Run(ctx context.Context, opts *Options) error {
	if err := opts.Policy.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var (
		queryExec   = executor.New(executor.WithTimeout(cfg.CommandTimeout))
		historyExec = executor.New(executor.WithTimeout(cfg.CommandTimeout), executor.WithEnv("LC_ALL=C"))
	)

	i := &inspector{
		out:        opts.Output,
		policy:     opts.Policy,
		source:     history.NewCommandSource(historyExec, cfg.PackageManager, cfg.HistoryArgs, time.Local),
		decider:    maintenance.NewPolicy(opts.Policy, cfg, queryExec, historyExec),
		prefixes:   cfg.Prefixes(),
		artifacts:  cfg.Artifacts(),
		probe:      remediation.FileProbe{},
		detectHost: common.DetectHost,
		now:        time.Now,
	}

	return i.Run(ctx)
}

// Run writes every section in order. Host and history failures are shown
// inline; only a failed decision aborts the report.
func (i *inspector) Run(ctx context.Context) error {
	i.writeHost(ctx)
	i.writeTransaction(ctx)
	i.writeArtifacts(ctx)

	decision, err := i.decider.Decide(ctx)
	if err != nil {
		return fmt.Errorf("preview decision: %w", err)
	}

	i.printf("\nPolicy %s would ", i.policy)

	switch {
	case decision.Reboot:
		i.printf("reboot (%s)", decision.Reason)

		if decision.Detail != "" {
			i.printf(": %s", decision.Detail)
		}
	case i.policy.Remediates():
		i.printf("not reboot and check the node agent (%s)", decision.Reason)
	default:
		i.printf("not reboot (%s)", decision.Reason)
	}

	i.printf("\n")

	return nil
}

func (i *inspector) writeHost(ctx context.Context) {
	if i.detectHost == nil {
		return
	}

	host, err := i.detectHost(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Could not detect host facts", "error", err)
		i.printf("Host: unavailable (%v)\n", err)

		return
	}

	i.printf("Host: %s, %s %s, kernel %s, up %s\n",
		host.Hostname, host.Platform, host.PlatformVersion, host.KernelVersion, host.Uptime(i.now()))
}

func (i *inspector) writeTransaction(ctx context.Context) {
	tx, err := i.source.LastTransaction(ctx)
	if err != nil {
		i.printf("\nLast transaction: unavailable (%v)\n", err)
		return
	}

	today := "no"
	if tx.BeganOn(i.now()) {
		today = "yes"
	}

	i.printf("\nLast transaction %d, began %s, today: %s\n", tx.ID, tx.BeginTime.Format(timeLayout), today)

	if len(tx.Actions) == 0 {
		i.printf("No package actions\n")
		return
	}

	table := tablewriter.NewWriter(i.out)
	table.Header("Action", "Package", "Repository", "Essential")

	for _, action := range tx.Actions {
		essential := ""
		if action.Kind == domain.UpgradeAction {
			if prefix, ok := i.prefixes.Match(action); ok {
				essential = prefix
			}
		}

		if err = table.Append(action.Kind, action.Package, action.Repository, essential); err != nil {
			logger.WarnKV(ctx, "Could not render transaction row", "error", err)
		}
	}

	if err = table.Render(); err != nil {
		logger.WarnKV(ctx, "Could not render transaction table", "error", err)
	}
}

func (i *inspector) writeArtifacts(ctx context.Context) {
	if len(i.artifacts) == 0 {
		return
	}

	i.printf("\nRequired artifacts\n")

	table := tablewriter.NewWriter(i.out)
	table.Header("Path", "Present")

	for _, artifact := range i.artifacts {
		present := "yes"
		if i.probe.Missing(ctx, domain.ArtifactSet{artifact}) != nil {
			present = "no"
		}

		if err := table.Append(artifact, present); err != nil {
			logger.WarnKV(ctx, "Could not render artifact row", "error", err)
		}
	}

	if err := table.Render(); err != nil {
		logger.WarnKV(ctx, "Could not render artifact table", "error", err)
	}
}

func (i *inspector) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(i.out, format, args...)
}
