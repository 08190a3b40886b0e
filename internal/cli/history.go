package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/goapgit/internal/ports/primary"
	"github.com/example/goapgit/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var limit int
	var allRepos bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List recorded runs for the repository, newest first.

Examples:
  goapgit history
  goapgit history --all --limit 50
  goapgit history show 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.RunFilters{Limit: limit}
			if !allRepos {
				filters.RepoPath = globals.RepoPath
			}
			_, err := wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).History(cmd.Context(), filters, globals.JSON)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&allRepos, "all", false, "List runs for every repository")

	cmd.AddCommand(historyShowCmd())

	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one recorded run with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).ShowRun(cmd.Context(), args[0], globals.JSON)
			return err
		},
	}
}
