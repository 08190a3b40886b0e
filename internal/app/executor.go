package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/execution"
	"github.com/example/goapgit/internal/core/plan"
	"github.com/example/goapgit/internal/ctxutil"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/primary"
	"github.com/example/goapgit/internal/ports/secondary"
)

// ExecutionResult is everything a run produced.
type ExecutionResult struct {
	RunID           string                    `json:"run_id,omitempty"`
	InitialState    models.RepoState          `json:"initial_state"`
	InitialPlan     plan.Plan                 `json:"initial_plan"`
	ExecutedActions []action.Spec             `json:"executed_actions"`
	Steps           []primary.RunStep         `json:"steps"`
	FinalPlan       plan.Plan                 `json:"final_plan"`
	Replanned       bool                      `json:"replanned"`
	CommandHistory  []secondary.CommandRecord `json:"command_history"`
	DryRun          bool                      `json:"dry_run"`

	// Replans counts how many times the plan was rebuilt.
	Replans int `json:"-"`
	// Failed counts failed steps.
	Failed int `json:"-"`
	// Status is the executor state the run ended in.
	Status execution.Status `json:"-"`
}

// Executor runs a plan action by action, replanning after a failure.
type Executor struct {
	cat       *action.Catalogue
	observer  secondary.RepoObserver
	performer ActionPerformer
	actions   secondary.CommandRunner
	cfg       models.Config
	logger    logging.Logger
}

// NewExecutor creates an Executor. actions is the runner whose history is reported.
func NewExecutor(
	cat *action.Catalogue,
	observer secondary.RepoObserver,
	performer ActionPerformer,
	actions secondary.CommandRunner,
	cfg models.Config,
	logger logging.Logger,
) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{
		cat:       cat,
		observer:  observer,
		performer: performer,
		actions:   actions,
		cfg:       cfg,
		logger:    logger,
	}
}

// Execute runs initial against the repository.
// Action failures are recorded and trigger a replan. Failed kinds never run
// again; succeeded kinds are excluded too unless they are repeatable and the
// fresh state still has conflicts or an operation in progress.
// Environment, observation and cancellation errors stop the run; the partial
// result is returned alongside the error.
func (e *Executor) Execute(ctx context.Context, state models.RepoState, initial plan.Plan) (*ExecutionResult, error) {
	res := &ExecutionResult{
		RunID:           ctxutil.RunIDFromContext(ctx),
		InitialState:    state,
		InitialPlan:     initial,
		ExecutedActions: []action.Spec{},
		Steps:           []primary.RunStep{},
		DryRun:          e.actions.DryRun(),
	}
	m := &machine{status: execution.StatusPending}
	current := initial
	queue := append([]action.Spec(nil), initial.Actions...)
	failed := make(map[action.Kind]bool)
	succeeded := make(map[action.Kind]bool)

	finish := func(err error) (*ExecutionResult, error) {
		res.FinalPlan = current
		res.CommandHistory = e.actions.History()
		res.Status = m.status
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if len(queue) == 0 {
			return finish(m.fire(execution.EventExhausted))
		}
		spec := queue[0]
		queue = queue[1:]
		if err := m.fire(execution.EventStart); err != nil {
			return finish(err)
		}

		step := primary.RunStep{Seq: len(res.Steps) + 1, Action: spec.Name()}
		log := e.logger.With("action", spec.Name(), "seq", step.Seq)
		log.Info("executing action", "cost", spec.Cost)

		output, err := e.performer.Perform(ctx, spec)
		if err == nil {
			step.Status = string(execution.StatusSucceeded)
			step.Output = output
			res.Steps = append(res.Steps, step)
			res.ExecutedActions = append(res.ExecutedActions, spec)
			succeeded[spec.Kind] = true
			if ferr := m.fire(execution.EventSucceed); ferr != nil {
				return finish(ferr)
			}
			continue
		}

		step.Status = string(execution.StatusFailed)
		step.Error = err.Error()
		res.Steps = append(res.Steps, step)
		res.Failed++
		failed[spec.Kind] = true
		if ferr := m.fire(execution.EventFail); ferr != nil {
			return finish(ferr)
		}
		if fatal(ctx, err) {
			log.Error("action failed fatally", "error", err)
			return finish(err)
		}
		log.Warn("action failed", "error", err)

		decision := execution.CanReplan(res.Replans, e.cfg.MaxReplans)
		if !decision.Allowed {
			log.Warn("not replanning", "reason", decision.Reason)
			current.Notes = append(append([]string(nil), current.Notes...), decision.Reason)
			return finish(m.fire(execution.EventExhausted))
		}

		fresh, err := e.observer.Observe(ctx)
		if err != nil {
			return finish(fmt.Errorf("failed to re-observe repository: %w", err))
		}
		current = plan.Build(e.cat, fresh, e.cfg.Goal, e.cat.SpecsExcluding(fresh, e.cfg, excludedKinds(fresh, failed, succeeded)))
		queue = append([]action.Spec(nil), current.Actions...)
		res.Replans++
		res.Replanned = true
		log.Info("replanned", "actions", len(current.Actions), "estimated_cost", current.EstimatedCost, "conflicts", fresh.ConflictPaths())
		if err := m.fire(execution.EventReplan); err != nil {
			return finish(err)
		}
	}
}

// excludedKinds is the set a replan must leave out.
func excludedKinds(fresh models.RepoState, failed, succeeded map[action.Kind]bool) map[action.Kind]bool {
	unfinished := fresh.HasConflicts() || fresh.Busy()
	out := make(map[action.Kind]bool, len(failed)+len(succeeded))
	for k := range succeeded {
		if unfinished && k.Repeatable() {
			continue
		}
		out[k] = true
	}
	for k := range failed {
		out[k] = true
	}
	return out
}

// fatal reports whether err must stop the run instead of triggering a replan.
func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, secondary.ErrEnvironment) || ctx.Err() != nil
}

// machine tracks the executor status through execution.Next.
type machine struct {
	status execution.Status
}

func (m *machine) fire(ev execution.Event) error {
	next, err := execution.Next(m.status, ev)
	if err != nil {
		return err
	}
	m.status = next
	return nil
}
