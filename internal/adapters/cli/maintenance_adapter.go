// Package cli contains thin adapters that translate CLI operations into service calls
// and render the results as text or JSON.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/ports/primary"
)

// MaintenanceAdapter is a thin adapter that translates CLI operations to MaintenanceService calls.
// It depends only on the MaintenanceService interface, enabling easy testing with mocks.
type MaintenanceAdapter struct {
	service   primary.MaintenanceService
	out       io.Writer
	highlight bool
}

// NewMaintenanceAdapter creates a new MaintenanceAdapter.
// Range-diff output is highlighted when out is a terminal.
func NewMaintenanceAdapter(service primary.MaintenanceService, out io.Writer) *MaintenanceAdapter {
	return &MaintenanceAdapter{
		service:   service,
		out:       out,
		highlight: isTerminal(out),
	}
}

// Plan displays the observed state and computed plan.
func (a *MaintenanceAdapter) Plan(ctx context.Context, req primary.PlanRequest, asJSON bool) (*primary.PlanResponse, error) {
	resp, err := a.service.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return resp, writeJSON(a.out, resp)
	}

	tracking := resp.State.Ref.Tracking
	if tracking == "" {
		tracking = "none"
	}
	fmt.Fprintf(a.out, "Repository: %s\n", resp.RepoPath)
	fmt.Fprintf(a.out, "Branch: %s (tracking=%s)\n", resp.State.Ref.Branch, tracking)
	fmt.Fprintf(a.out, "Estimated cost: %.2f\n", resp.Plan.EstimatedCost)
	fmt.Fprintln(a.out, "Actions:")
	for i, spec := range resp.Plan.Actions {
		fmt.Fprintf(a.out, "  %d. %s (cost=%.2f)\n", i+1, spec.Name(), spec.Cost)
		if spec.Rationale != "" {
			fmt.Fprintf(a.out, "     reason: %s\n", spec.Rationale)
		}
		if fields := paramFields(spec); len(fields) > 0 {
			fmt.Fprintf(a.out, "     params: %s\n", formatParams(fields))
		}
	}
	return resp, nil
}

// Run executes the plan and summarises what ran.
func (a *MaintenanceAdapter) Run(ctx context.Context, req primary.RunRequest, asJSON bool) (*primary.RunResponse, error) {
	resp, err := a.service.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return resp, writeJSON(a.out, resp)
	}

	mode := "confirmed"
	if resp.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(a.out, "Mode: %s\n", mode)
	fmt.Fprintf(a.out, "Executed actions: %d\n", len(resp.ExecutedActions))
	if resp.Replanned {
		fmt.Fprintln(a.out, color.New(color.FgYellow).Sprint("A replanning step was triggered during execution."))
	} else {
		fmt.Fprintln(a.out, "Plan executed without replanning.")
	}
	for i, spec := range resp.ExecutedActions {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, spec.Name())
	}
	a.printFailures(resp.Steps)
	a.printRangeDiff(resp.Steps)
	for _, note := range resp.FinalPlan.Notes {
		fmt.Fprintf(a.out, "Note: %s\n", note)
	}
	return resp, nil
}

// DryRun executes the plan without mutating the repository and lists every command.
func (a *MaintenanceAdapter) DryRun(ctx context.Context, req primary.RunRequest, asJSON bool) (*primary.RunResponse, error) {
	dry := true
	req.DryRun = &dry
	resp, err := a.service.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return resp, writeJSON(a.out, resp)
	}

	fmt.Fprintln(a.out, "Mode: dry-run")
	fmt.Fprintf(a.out, "Executed actions: %d\n", len(resp.ExecutedActions))
	fmt.Fprintln(a.out, "Command history:")
	for _, rec := range resp.CommandHistory {
		fmt.Fprintf(a.out, "  - %s (returncode=%d, dry_run=%s)\n", FormatCommand(rec.Argv), rec.ReturnCode, pyBool(rec.DryRun))
	}
	return resp, nil
}

// Explain displays each planned action with its reason and alternatives.
func (a *MaintenanceAdapter) Explain(ctx context.Context, req primary.PlanRequest, asJSON bool) (*primary.ExplainResponse, error) {
	resp, err := a.service.Explain(ctx, req)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return resp, writeJSON(a.out, resp)
	}

	fmt.Fprintf(a.out, "Repository: %s\n", resp.RepoPath)
	fmt.Fprintf(a.out, "Plan estimated cost: %.2f\n", resp.Plan.EstimatedCost)
	fmt.Fprintln(a.out, "Explanations:")
	for i, exp := range resp.Explanations {
		fmt.Fprintf(a.out, "  %d. %s (cost=%.2f)\n", i+1, exp.Action.Name(), exp.Cost)
		fmt.Fprintf(a.out, "     reason: %s\n", exp.Reason)
		for _, alt := range exp.Alternatives {
			fmt.Fprintf(a.out, "     alternative: %s\n", alt)
		}
	}
	if len(resp.Notes) > 0 {
		fmt.Fprintln(a.out, "Notes:")
		for _, note := range resp.Notes {
			fmt.Fprintf(a.out, "  - %s\n", note)
		}
	}
	if len(resp.Skipped) > 0 {
		fmt.Fprintln(a.out, "Not planned:")
		for _, s := range resp.Skipped {
			fmt.Fprintf(a.out, "  - %s: %s\n", s.Action, s.Reason)
		}
	}
	return resp, nil
}

// History lists recorded runs.
func (a *MaintenanceAdapter) History(ctx context.Context, filters primary.RunFilters, asJSON bool) ([]*primary.RunSummary, error) {
	runs, err := a.service.ListRuns(ctx, filters)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return runs, writeJSON(a.out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Record your first run:")
		fmt.Fprintln(a.out, "  goapgit dry-run")
		return runs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tMODE\tEXECUTED\tBRANCH")
	fmt.Fprintln(w, "--\t-------\t------\t----\t--------\t------")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.StartedAt,
			statusLabel(run.Status),
			modeLabel(run.DryRun),
			run.ExecutedCount,
			run.Branch,
		)
	}
	w.Flush()
	return runs, nil
}

// ShowRun displays one recorded run with its steps.
func (a *MaintenanceAdapter) ShowRun(ctx context.Context, runID string, asJSON bool) (*primary.RunSummary, error) {
	run, err := a.service.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return run, writeJSON(a.out, run)
	}

	fmt.Fprintf(a.out, "\nRun: %s\n", run.ID)
	fmt.Fprintf(a.out, "Repository: %s\n", run.RepoPath)
	fmt.Fprintf(a.out, "Branch:     %s\n", run.Branch)
	fmt.Fprintf(a.out, "Mode:       %s\n", modeLabel(run.DryRun))
	fmt.Fprintf(a.out, "Status:     %s\n", statusLabel(run.Status))
	fmt.Fprintf(a.out, "Replanned:  %t\n", run.Replanned)
	fmt.Fprintf(a.out, "Cost:       %.2f -> %.2f\n", run.InitialCost, run.FinalCost)
	fmt.Fprintf(a.out, "Started:    %s\n", run.StartedAt)
	fmt.Fprintf(a.out, "Finished:   %s\n", run.FinishedAt)
	if run.Error != "" {
		fmt.Fprintf(a.out, "Error:      %s\n", run.Error)
	}
	if len(run.Steps) > 0 {
		fmt.Fprintln(a.out, "Steps:")
		for _, step := range run.Steps {
			fmt.Fprintf(a.out, "  %d. %s [%s]\n", step.Seq, actionLabel(step.Action), statusLabel(step.Status))
			if step.Error != "" {
				fmt.Fprintf(a.out, "     error: %s\n", step.Error)
			}
		}
	}
	fmt.Fprintln(a.out)
	return run, nil
}

// Helper methods

func (a *MaintenanceAdapter) printFailures(steps []primary.RunStep) {
	var failed []primary.RunStep
	for _, step := range steps {
		if step.Status == "failed" {
			failed = append(failed, step)
		}
	}
	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(a.out, "Failed actions:")
	for _, step := range failed {
		fmt.Fprintf(a.out, "  - %s: %s\n", color.New(color.FgRed).Sprint(step.Action), step.Error)
	}
}

func (a *MaintenanceAdapter) printRangeDiff(steps []primary.RunStep) {
	for _, step := range steps {
		if step.Action != action.KindExplainRangeDiff.String() || step.Status != "succeeded" || step.Output == "" {
			continue
		}
		out := step.Output
		if a.highlight {
			out = highlightDiff(out)
		}
		fmt.Fprintln(a.out, "Range-diff:")
		fmt.Fprintln(a.out, strings.TrimRight(out, "\n"))
	}
}

func paramFields(spec action.Spec) map[string]string {
	if spec.Params == nil {
		return nil
	}
	return spec.Params.Fields()
}

var categoryColors = map[action.Category]color.Attribute{
	action.CategorySafety:   color.FgCyan,
	action.CategoryConflict: color.FgMagenta,
	action.CategorySync:     color.FgBlue,
	action.CategoryRebase:   color.FgYellow,
	action.CategoryQuality:  color.FgGreen,
}

// actionLabel colors a recorded action name by its category.
// Names that no longer map to a kind are printed as stored.
func actionLabel(name string) string {
	k, ok := action.ParseKind(name)
	if !ok {
		return name
	}
	attr, ok := categoryColors[k.Category()]
	if !ok {
		return name
	}
	return color.New(attr).Sprint(name)
}

func statusLabel(status string) string {
	switch status {
	case "succeeded":
		return color.New(color.FgGreen).Sprint(status)
	case "partial":
		return color.New(color.FgYellow).Sprint(status)
	case "failed":
		return color.New(color.FgRed).Sprint(status)
	}
	return status
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "confirmed"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
