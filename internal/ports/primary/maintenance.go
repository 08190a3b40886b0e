package primary

import (
	"context"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/plan"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
)

// MaintenanceService defines the primary port for branch maintenance.
type MaintenanceService interface {
	// Plan observes the repository and computes a plan without executing it.
	Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error)

	// Run observes, plans and executes, replanning on failure.
	Run(ctx context.Context, req RunRequest) (*RunResponse, error)

	// Explain computes a plan and annotates every action with its reason and alternatives.
	Explain(ctx context.Context, req PlanRequest) (*ExplainResponse, error)

	// ListRuns lists recorded runs, newest first.
	ListRuns(ctx context.Context, filters RunFilters) ([]*RunSummary, error)

	// GetRun retrieves one recorded run with its steps.
	GetRun(ctx context.Context, runID string) (*RunSummary, error)
}

// PlanRequest contains parameters for planning.
type PlanRequest struct {
	RepoPath string
	Config   models.Config

	// CostAdjustment scales the estimated cost; clamped to ±0.2. Nil means no hint.
	CostAdjustment *float64
	CostNote       string
}

// PlanResponse contains the observed state and computed plan.
type PlanResponse struct {
	RepoPath      string                `json:"repository"`
	State         models.RepoState      `json:"state"`
	Candidates    []action.Spec         `json:"candidates"`
	Plan          plan.Plan             `json:"plan"`
	StrategyRules []models.StrategyRule `json:"strategy_rules"`
}

// RunRequest contains parameters for executing a plan.
type RunRequest struct {
	RepoPath string
	Config   models.Config

	// DryRun overrides Config.DryRun when set.
	DryRun *bool

	// NoHistory skips persisting the run.
	NoHistory bool
}

// RunStep is one attempted action.
type RunStep struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Output string `json:"output,omitempty"`
}

// RunResponse is the serializable outcome of a run.
type RunResponse struct {
	RunID           string                    `json:"run_id,omitempty"`
	RepoPath        string                    `json:"repository"`
	InitialState    models.RepoState          `json:"initial_state"`
	InitialPlan     plan.Plan                 `json:"initial_plan"`
	ExecutedActions []action.Spec             `json:"executed_actions"`
	Steps           []RunStep                 `json:"steps"`
	FinalPlan       plan.Plan                 `json:"final_plan"`
	Replanned       bool                      `json:"replanned"`
	CommandHistory  []secondary.CommandRecord `json:"command_history"`
	DryRun          bool                      `json:"dry_run"`
}

// Explanation annotates one planned action.
type Explanation struct {
	Action       action.Spec `json:"action"`
	Reason       string      `json:"reason"`
	Alternatives []string    `json:"alternatives"`
	Cost         float64     `json:"cost"`
}

// SkippedAction is a catalogue entry whose precondition does not hold.
type SkippedAction struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ExplainResponse contains a plan with per-action explanations.
type ExplainResponse struct {
	RepoPath     string          `json:"repository"`
	Plan         plan.Plan       `json:"plan"`
	Notes        []string        `json:"notes"`
	Explanations []Explanation   `json:"explanations"`
	Skipped      []SkippedAction `json:"skipped"`
}

// RunSummary represents a recorded run at the port boundary.
type RunSummary struct {
	ID            string    `json:"id"`
	RepoPath      string    `json:"repository"`
	Branch        string    `json:"branch"`
	DryRun        bool      `json:"dry_run"`
	Replanned     bool      `json:"replanned"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	InitialCost   float64   `json:"initial_cost"`
	FinalCost     float64   `json:"final_cost"`
	ExecutedCount int       `json:"executed_count"`
	StartedAt     string    `json:"started_at"`
	FinishedAt    string    `json:"finished_at"`
	Steps         []RunStep `json:"steps,omitempty"`
}

// RunFilters contains filter options for listing runs.
type RunFilters struct {
	RepoPath string
	Limit    int
}
