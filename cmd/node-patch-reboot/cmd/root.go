package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/service/inspect"
	"github.com/oshokin/node-patcher/internal/service/maintenance"
	"github.com/oshokin/node-patcher/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel is the requested logging level; TRACE=1 overrides it.
	logLevel string
	// dryRun decides and logs without rebooting.
	dryRun bool
	// force skips the single-instance guard.
	force bool

	// rootCmd represents the base command for the staged reboot pass.
	rootCmd = &cobra.Command{
		Use:   maintenance.RebootExecutable,
		Short: "Update packages and reboot when the update requires it.",
		Long: `Unattended maintenance pass that updates every installed package and
reboots the node when the update requires it.

A reboot is scheduled when the staleness query reports outdated running
processes or, failing that, when today's package transaction upgraded a
package from the essential prefix list (container runtime packages by default).
A transaction that did not begin today never triggers a reboot.

Runs once and exits: schedule it with cron or a systemd timer.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !logger.Configure(logLevel) {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return maintenance.Run(cmd.Context(), &maintenance.Options{
				ConfigPath: configPath,
				Policy:     maintenance.PolicyStaged,
				DryRun:     dryRun,
				Force:      force,
				Name:       maintenance.RebootExecutable,
			})
		},
	}
)

// Execute runs the node-patch-reboot CLI and exits with the pass's exit code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	inspect.AttachCobraInspectCommand(rootCmd, &configPath, maintenance.PolicyStaged)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(maintenance.ExitCode(err))
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Configuration and logging apply to every subcommand.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file, built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "decide and log without rebooting")
	rootCmd.Flags().BoolVar(&force, "force", false, "run even if another maintenance pass is active")
}
