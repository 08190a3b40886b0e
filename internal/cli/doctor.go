package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/goapgit/internal/adapters/gitexec"
	"github.com/example/goapgit/internal/config"
	"github.com/example/goapgit/internal/db"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
)

// Minimum git version for merge-tree --write-tree and rebase --update-refs.
const (
	minGitMajor = 2
	minGitMinor = 38
)

// Check statuses.
const (
	StatusOK   = "✓"
	StatusWarn = "⚠"
	StatusFail = "✗"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the git environment and goapgit setup",
		Long: `Environment health check for goapgit.

Validates:
- git binary and version (2.38 or newer)
- The repository path is a git work tree
- rerere and conflict style settings
- Configuration file
- Run history database

Examples:
  goapgit doctor              # Run full health check
  goapgit doctor --quiet      # Exit code only (0=healthy, 1=issues)
  goapgit doctor --show-config  # Also print the effective configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := loadConfig(cmd.Context())
			results := runChecks(cmd.Context(), gitexec.NewRunner(globals.RepoPath), cfg, cfgErr)
			results = append(results, checkHistoryDB())

			if !globals.Quiet {
				printResults(cmd.OutOrStdout(), results)
				if showConfig && cfgErr == nil {
					if err := printConfig(cmd.OutOrStdout(), cfg); err != nil {
						return err
					}
				}
			}
			if hasFailures(results) {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showConfig, "show-config", false, "Print the effective configuration as YAML")

	return cmd
}

// runChecks runs every repository check through runner.
// Later checks are skipped when git itself is unusable.
func runChecks(ctx context.Context, runner secondary.CommandRunner, cfg models.Config, cfgErr error) []CheckResult {
	gitResult := checkGit(ctx, runner)
	results := []CheckResult{gitResult, checkConfig(cfgErr)}
	if gitResult.Status == StatusFail {
		return results
	}

	workTree := checkWorkTree(ctx, runner)
	results = append(results, workTree)
	if workTree.Status == StatusFail {
		return results
	}

	if cfgErr == nil {
		results = append(results, checkRerere(ctx, runner, cfg), checkConflictStyle(ctx, runner, cfg))
	}
	return results
}

func printResults(w io.Writer, results []CheckResult) {
	// Print compact table
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check              Status")
	fmt.Fprintln(w, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(w, "%-18s %s\n", r.Name, r.Status)
	}
	fmt.Fprintln(w)

	// Print details for non-passing checks
	hasDetails := false
	for _, r := range results {
		if r.Status != StatusOK && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(w, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(w, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasFailures(results) {
		fmt.Fprintln(w, "\n⚠ Issues found.")
	} else {
		fmt.Fprintln(w, "All checks passed.")
	}
}

// printConfig writes the configuration the other commands would run with.
func printConfig(w io.Writer, cfg models.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nEffective configuration:")
	_, err = w.Write(data)
	return err
}

func hasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// checkGit validates the git binary and its version
func checkGit(ctx context.Context, runner secondary.CommandRunner) CheckResult {
	res, err := runner.Run(ctx, []string{"git", "version"})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, secondary.ErrEnvironment) {
			return CheckResult{Name: "Git", Status: StatusFail, Details: "  'git' not found in PATH"}
		}
		return CheckResult{Name: "Git", Status: StatusFail, Details: "  " + err.Error()}
	}

	out := strings.TrimSpace(res.Stdout)
	major, minor, ok := parseGitVersion(out)
	if !ok {
		return CheckResult{Name: "Git", Status: StatusWarn, Details: fmt.Sprintf("  Could not parse %q", out)}
	}
	if major < minGitMajor || (major == minGitMajor && minor < minGitMinor) {
		return CheckResult{
			Name:    "Git",
			Status:  StatusWarn,
			Details: fmt.Sprintf("  %s is older than %d.%d\n  Conflict preview and --update-refs will fail", out, minGitMajor, minGitMinor),
		}
	}
	return CheckResult{Name: "Git", Status: StatusOK, Details: "  " + out}
}

// checkWorkTree verifies the repository path is inside a work tree
func checkWorkTree(ctx context.Context, runner secondary.CommandRunner) CheckResult {
	res, err := runner.Run(ctx, []string{"git", "rev-parse", "--is-inside-work-tree"})
	if err != nil || strings.TrimSpace(res.Stdout) != "true" {
		return CheckResult{
			Name:    "Work tree",
			Status:  StatusFail,
			Details: fmt.Sprintf("  %s is not a git work tree", runner.Dir()),
		}
	}
	return CheckResult{Name: "Work tree", Status: StatusOK}
}

// checkRerere warns when rerere is wanted but not enabled yet
func checkRerere(ctx context.Context, runner secondary.CommandRunner, cfg models.Config) CheckResult {
	if !cfg.EnableRerere {
		return CheckResult{Name: "Rerere", Status: StatusOK, Details: "  disabled by configuration"}
	}
	value := gitConfigValue(ctx, runner, "--bool", "rerere.enabled")
	if value != "true" {
		return CheckResult{
			Name:    "Rerere",
			Status:  StatusWarn,
			Details: "  rerere.enabled is not set\n  It will be enabled on the first conflict resolution",
		}
	}
	return CheckResult{Name: "Rerere", Status: StatusOK}
}

// checkConflictStyle reports when the repository default differs from the configured style
func checkConflictStyle(ctx context.Context, runner secondary.CommandRunner, cfg models.Config) CheckResult {
	value := gitConfigValue(ctx, runner, "merge.conflictStyle")
	if cfg.ConflictStyle != "" && value != cfg.ConflictStyle {
		current := value
		if current == "" {
			current = "merge (default)"
		}
		return CheckResult{
			Name:    "Conflict style",
			Status:  StatusWarn,
			Details: fmt.Sprintf("  merge.conflictStyle is %s; rebases use %s", current, cfg.ConflictStyle),
		}
	}
	return CheckResult{Name: "Conflict style", Status: StatusOK}
}

// checkConfig reports configuration load errors
func checkConfig(cfgErr error) CheckResult {
	if cfgErr != nil {
		return CheckResult{Name: "Config", Status: StatusFail, Details: "  " + ErrorMessage(cfgErr)}
	}
	return CheckResult{Name: "Config", Status: StatusOK}
}

// checkHistoryDB opens and migrates the run history database
func checkHistoryDB() CheckResult {
	path, err := db.GetDBPath()
	if err != nil {
		return CheckResult{Name: "History DB", Status: StatusWarn, Details: "  " + err.Error()}
	}
	conn, err := db.GetDB()
	if err != nil {
		return CheckResult{
			Name:    "History DB",
			Status:  StatusWarn,
			Details: fmt.Sprintf("  %s: %v\n  Runs will not be recorded", path, err),
		}
	}
	v, err := db.SchemaVersion(conn)
	if err != nil {
		return CheckResult{Name: "History DB", Status: StatusWarn, Details: "  " + err.Error()}
	}
	return CheckResult{Name: "History DB", Status: StatusOK, Details: fmt.Sprintf("  %s (schema %d)", path, v)}
}

// gitConfigValue returns a config value, or "" when unset.
func gitConfigValue(ctx context.Context, runner secondary.CommandRunner, args ...string) string {
	res, err := runner.Run(ctx, append([]string{"git", "config"}, args...))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// parseGitVersion extracts major and minor from "git version 2.43.0".
func parseGitVersion(out string) (major, minor int, ok bool) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return 0, 0, false
	}
	parts := strings.SplitN(fields[2], ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	var err error
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

