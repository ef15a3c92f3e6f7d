package inspect

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/node-patcher/internal/service/maintenance"
)

// AttachCobraInspectCommand adds an `inspect` subcommand to the root command.
// configPath points at the root's persistent --config flag value.
func AttachCobraInspectCommand(root *cobra.Command, configPath *string, policy maintenance.Policy) {
	root.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Preview the reboot decision without changing anything.",
		Long: `Print the host facts, the last package transaction, the required artifacts
and the decision the ` + string(policy) + ` policy would reach right now.

Nothing is updated, rebooted or restarted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), &Options{
				ConfigPath: *configPath,
				Policy:     policy,
				Output:     cmd.OutOrStdout(),
			})
		},
	})
}
