package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/example/goapgit/internal/cli"
	"github.com/example/goapgit/internal/db"
	"github.com/example/goapgit/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "goapgit",
		Short:   "goapgit - goal-oriented git branch maintenance",
		Version: version.String(),
		Long: `goapgit observes a git repository, plans the cheapest sequence of
maintenance actions that brings the current branch up to date with its
upstream, and executes it safely: a backup ref first, dry-run by default,
and replanning when an action fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.PlanCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.DryRunCmd())
	rootCmd.AddCommand(cli.ExplainCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = db.Close()

	if err != nil {
		cli.PrintError(err)
		os.Exit(cli.ExitCode(err))
	}
}
