package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/goapgit/internal/ports/primary"
	"github.com/example/goapgit/internal/wire"
)

// PlanCmd returns the plan command
func PlanCmd() *cobra.Command {
	var costAdjust float64
	var costNote string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the maintenance plan for the current branch",
		Long: `Observe the repository and print the ordered action plan without executing anything.

Examples:
  goapgit plan
  goapgit plan --repo ../service --json
  goapgit plan --cost-adjust -0.1 --cost-note "release freeze"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			req := primary.PlanRequest{
				RepoPath: globals.RepoPath,
				Config:   cfg,
				CostNote: costNote,
			}
			if cmd.Flags().Changed("cost-adjust") {
				req.CostAdjustment = &costAdjust
			}
			_, err = wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).Plan(cmd.Context(), req, globals.JSON)
			return err
		},
	}

	cmd.Flags().Float64Var(&costAdjust, "cost-adjust", 0, "Scale the estimated cost (clamped to ±0.2)")
	cmd.Flags().StringVar(&costNote, "cost-note", "", "Note recorded with the cost adjustment")

	return cmd
}

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var confirm bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the maintenance plan",
		Long: `Observe, plan and execute, replanning after a failed action.

Without --confirm the run is a dry run: read-only git commands execute,
everything else is recorded but not performed.

Examples:
  goapgit run              # dry run
  goapgit run --confirm    # mutate the repository`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			dryRun := !confirm
			req := primary.RunRequest{
				RepoPath:  globals.RepoPath,
				Config:    cfg,
				DryRun:    &dryRun,
				NoHistory: noHistory,
			}
			_, err = wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).Run(cmd.Context(), req, globals.JSON)
			return err
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Actually mutate the repository")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run")

	return cmd
}

// DryRunCmd returns the dry-run command
func DryRunCmd() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Simulate the plan and list every command",
		Long: `Execute the plan in dry-run mode and print the command history,
marking which commands were only recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			req := primary.RunRequest{
				RepoPath:  globals.RepoPath,
				Config:    cfg,
				NoHistory: noHistory,
			}
			_, err = wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).DryRun(cmd.Context(), req, globals.JSON)
			return err
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run")

	return cmd
}

// ExplainCmd returns the explain command
func ExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain",
		Short: "Explain why each action was planned",
		Long: `Print every planned action with its reason and the alternatives,
followed by the catalogue entries that were not planned and why.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			req := primary.PlanRequest{RepoPath: globals.RepoPath, Config: cfg}
			_, err = wire.MaintenanceAdapterWithOutput(cmd.OutOrStdout()).Explain(cmd.Context(), req, globals.JSON)
			return err
		},
	}
}
