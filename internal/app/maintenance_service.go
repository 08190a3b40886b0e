package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/execution"
	"github.com/example/goapgit/internal/core/plan"
	"github.com/example/goapgit/internal/ctxutil"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/primary"
	"github.com/example/goapgit/internal/ports/secondary"
)

// RunnerFactory creates a command runner rooted at dir.
type RunnerFactory func(dir string, dryRun bool) secondary.CommandRunner

// NoteDroppedByPlanner explains a catalogue action whose guard passed but the planner filtered.
const NoteDroppedByPlanner = "dropped by planner for the current goal"

// MaintenanceServiceImpl implements the MaintenanceService interface.
type MaintenanceServiceImpl struct {
	catalogue *action.Catalogue
	newRunner RunnerFactory
	runRepo   secondary.RunRepository // nil disables history
	logger    logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewMaintenanceService creates a new MaintenanceService with injected dependencies.
func NewMaintenanceService(
	catalogue *action.Catalogue,
	newRunner RunnerFactory,
	runRepo secondary.RunRepository,
	logger logging.Logger,
) *MaintenanceServiceImpl {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MaintenanceServiceImpl{
		catalogue: catalogue,
		newRunner: newRunner,
		runRepo:   runRepo,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Plan observes the repository and computes a plan without executing it.
func (s *MaintenanceServiceImpl) Plan(ctx context.Context, req primary.PlanRequest) (*primary.PlanResponse, error) {
	repoPath, err := s.resolveRepoPath(ctx, req.RepoPath)
	if err != nil {
		return nil, err
	}
	state, err := NewGitObserver(s.newRunner(repoPath, false)).Observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to observe repository: %w", err)
	}

	candidates := s.catalogue.Specs(state, req.Config)
	p := plan.Build(s.catalogue, state, req.Config.Goal, candidates)
	if req.CostAdjustment != nil {
		p = plan.ApplyCostHint(p, *req.CostAdjustment, req.CostNote)
	}

	if candidates == nil {
		candidates = []action.Spec{}
	}
	rules := req.Config.StrategyRules
	if rules == nil {
		rules = []models.StrategyRule{}
	}
	return &primary.PlanResponse{
		RepoPath:      repoPath,
		State:         state,
		Candidates:    candidates,
		Plan:          p,
		StrategyRules: rules,
	}, nil
}

// Explain computes a plan and annotates every action with its reason and alternatives.
func (s *MaintenanceServiceImpl) Explain(ctx context.Context, req primary.PlanRequest) (*primary.ExplainResponse, error) {
	planned, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	explanations := make([]primary.Explanation, 0, len(planned.Plan.Actions))
	for _, spec := range planned.Plan.Actions {
		exp, ok := s.catalogue.Explain(spec.Kind)
		if !ok {
			exp = action.Explanation{Reason: spec.Rationale}
		}
		explanations = append(explanations, primary.Explanation{
			Action:       spec,
			Reason:       exp.Reason,
			Alternatives: exp.Alternatives,
			Cost:         spec.Cost,
		})
	}

	skipped := []primary.SkippedAction{}
	for _, k := range s.catalogue.Kinds() {
		if planned.Plan.Contains(k) {
			continue
		}
		reason := NoteDroppedByPlanner
		if g := s.catalogue.Check(k, planned.State, req.Config); !g.Allowed {
			reason = g.Reason
		}
		skipped = append(skipped, primary.SkippedAction{Action: k.String(), Reason: reason})
	}

	notes := planned.Plan.Notes
	if notes == nil {
		notes = []string{}
	}
	return &primary.ExplainResponse{
		RepoPath:     planned.RepoPath,
		Plan:         planned.Plan,
		Notes:        notes,
		Explanations: explanations,
		Skipped:      skipped,
	}, nil
}

// Run observes, plans and executes, replanning on failure.
func (s *MaintenanceServiceImpl) Run(ctx context.Context, req primary.RunRequest) (*primary.RunResponse, error) {
	repoPath, err := s.resolveRepoPath(ctx, req.RepoPath)
	if err != nil {
		return nil, err
	}
	cfg := req.Config
	if req.DryRun != nil {
		cfg.DryRun = *req.DryRun
	}

	runID := s.newID()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := s.logger.With("run_id", runID, "repository", repoPath, "dry_run", cfg.DryRun)

	live := s.newRunner(repoPath, false)
	actions := s.newRunner(repoPath, cfg.DryRun)
	observer := NewGitObserver(live)

	started := s.now()
	state, err := observer.Observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to observe repository: %w", err)
	}
	initial := plan.Build(s.catalogue, state, cfg.Goal, s.catalogue.Specs(state, cfg))
	log.Info("plan built", "actions", len(initial.Actions), "estimated_cost", initial.EstimatedCost)

	performer := NewActionRunner(ActionRunnerDeps{
		Actions:  actions,
		Live:     live,
		Observer: observer,
		Config:   cfg,
		Logger:   log,
		Now:      s.now,
	})
	result, runErr := NewExecutor(s.catalogue, observer, performer, actions, cfg, log).Execute(ctx, state, initial)

	if !req.NoHistory {
		s.record(ctx, log, repoPath, result, runErr, started)
	}
	if runErr != nil {
		return nil, runErr
	}

	log.Info("run finished", "executed", len(result.ExecutedActions), "replanned", result.Replanned)
	return &primary.RunResponse{
		RunID:           runID,
		RepoPath:        repoPath,
		InitialState:    result.InitialState,
		InitialPlan:     result.InitialPlan,
		ExecutedActions: result.ExecutedActions,
		Steps:           result.Steps,
		FinalPlan:       result.FinalPlan,
		Replanned:       result.Replanned,
		CommandHistory:  result.CommandHistory,
		DryRun:          result.DryRun,
	}, nil
}

// record persists a finished run. Failures are logged and never fail the run.
func (s *MaintenanceServiceImpl) record(ctx context.Context, log logging.Logger, repoPath string, result *ExecutionResult, runErr error, started time.Time) {
	if s.runRepo == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn("failed to encode run payload", "error", err)
		payload = []byte("{}")
	}

	record := &secondary.RunRecord{
		ID:            result.RunID,
		RepoPath:      repoPath,
		Branch:        result.InitialState.Ref.Branch,
		DryRun:        result.DryRun,
		Replanned:     result.Replanned,
		Status:        execution.Outcome(len(result.ExecutedActions), result.Failed, runErr != nil),
		InitialCost:   result.InitialPlan.EstimatedCost,
		FinalCost:     result.FinalPlan.EstimatedCost,
		ExecutedCount: len(result.ExecutedActions),
		Payload:       string(payload),
		StartedAt:     started.UTC().Format(time.RFC3339),
		FinishedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}
	for _, step := range result.Steps {
		record.Steps = append(record.Steps, &secondary.RunStepRecord{
			Seq:    step.Seq,
			Action: step.Action,
			Status: step.Status,
			Error:  step.Error,
			Output: step.Output,
		})
	}

	// The run may have been cancelled; history is still written.
	if err := s.runRepo.Create(context.WithoutCancel(ctx), record); err != nil {
		log.Warn("failed to record run history", "error", err)
	}
}

// ListRuns lists recorded runs, newest first.
func (s *MaintenanceServiceImpl) ListRuns(ctx context.Context, filters primary.RunFilters) ([]*primary.RunSummary, error) {
	if s.runRepo == nil {
		return []*primary.RunSummary{}, nil
	}
	repoPath := filters.RepoPath
	if repoPath != "" {
		abs, err := s.resolveRepoPath(ctx, repoPath)
		if err != nil {
			return nil, err
		}
		repoPath = abs
	}
	records, err := s.runRepo.List(ctx, secondary.RunFilters{RepoPath: repoPath, Limit: filters.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs := make([]*primary.RunSummary, len(records))
	for i, r := range records {
		runs[i] = s.recordToSummary(r)
	}
	return runs, nil
}

// GetRun retrieves one recorded run with its steps.
func (s *MaintenanceServiceImpl) GetRun(ctx context.Context, runID string) (*primary.RunSummary, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run history is disabled")
	}
	record, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.recordToSummary(record), nil
}

// Helper methods

func (s *MaintenanceServiceImpl) recordToSummary(r *secondary.RunRecord) *primary.RunSummary {
	summary := &primary.RunSummary{
		ID:            r.ID,
		RepoPath:      r.RepoPath,
		Branch:        r.Branch,
		DryRun:        r.DryRun,
		Replanned:     r.Replanned,
		Status:        r.Status,
		Error:         r.Error,
		InitialCost:   r.InitialCost,
		FinalCost:     r.FinalCost,
		ExecutedCount: r.ExecutedCount,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
	for _, step := range r.Steps {
		summary.Steps = append(summary.Steps, primary.RunStep{
			Seq:    step.Seq,
			Action: step.Action,
			Status: step.Status,
			Error:  step.Error,
			Output: step.Output,
		})
	}
	return summary
}

// resolveRepoPath returns the work tree root containing p.
// Porcelain paths are relative to the root, so runners and the observer must start there.
// A directory outside any work tree is returned as is and left for the observer to reject.
func (s *MaintenanceServiceImpl) resolveRepoPath(ctx context.Context, p string) (string, error) {
	if p == "" {
		p = "."
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository path %s: %w", p, err)
	}
	res, err := s.newRunner(abs, false).Run(ctx, []string{"git", "rev-parse", "--show-toplevel"})
	switch {
	case errors.Is(err, secondary.ErrCommandFailed) && !errors.Is(err, secondary.ErrCommandTimeout):
		return abs, nil
	case err != nil:
		return "", fmt.Errorf("failed to resolve repository root of %s: %w", abs, err)
	}
	top := strings.TrimSpace(res.Stdout)
	if top == "" {
		return abs, nil
	}
	return filepath.Clean(filepath.FromSlash(top)), nil
}

// Ensure MaintenanceServiceImpl implements the interface
var _ primary.MaintenanceService = (*MaintenanceServiceImpl)(nil)
