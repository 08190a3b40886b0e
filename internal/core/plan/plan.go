// Package plan contains the pure planner that orders candidate actions into a plan.
// This is part of the Functional Core - no I/O, only pure functions.
package plan

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/models"
)

// Cost adjustment bounds for ApplyCostHint.
const (
	MinCostAdjustment = -0.2
	MaxCostAdjustment = 0.2
)

// Advisory notes attached by Build.
const (
	NotePushResolveOnly = "push skipped: goal mode is resolve_only"
	NotePushBusy        = "push skipped: lease unsafe while a rebase or merge is in progress"
	NotePushNotOffered  = "push requested but not applicable: no tracked upstream or nothing to publish"
	NoteTestsDeferred   = "tests deferred: working tree must be clean with no conflicts, rebase or merge"
	NoteEmpty           = "no applicable actions"
)

// ErrInvalidBounds is returned when a clamp range is inverted.
var ErrInvalidBounds = errors.New("invalid bounds")

// Plan is an ordered list of actions with an aggregate cost.
type Plan struct {
	Actions        []action.Spec `json:"actions"`
	EstimatedCost  float64       `json:"estimated_cost"`
	Notes          []string      `json:"notes"`
	CostAdjustment float64       `json:"cost_adjustment,omitempty"`
}

// Empty reports whether the plan has no actions.
func (p Plan) Empty() bool { return len(p.Actions) == 0 }

// Kinds returns the kinds in plan order.
func (p Plan) Kinds() []action.Kind {
	kinds := make([]action.Kind, len(p.Actions))
	for i, a := range p.Actions {
		kinds[i] = a.Kind
	}
	return kinds
}

// Contains reports whether k is planned.
func (p Plan) Contains(k action.Kind) bool {
	for _, a := range p.Actions {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// BaseCost returns the unadjusted sum of action costs.
func (p Plan) BaseCost() float64 {
	total := 0.0
	for _, a := range p.Actions {
		total += a.Cost
	}
	return total
}

// Build turns candidates into a plan for the goal.
// Rules:
// - Push is dropped in resolve_only mode and whenever a rebase or merge is ongoing
// - Candidates are ordered by catalogue priority, first occurrence of a kind wins
// - EstimatedCost is the sum of included costs
// - Advisory notes explain deferred goals and empty plans
func Build(cat *action.Catalogue, state models.RepoState, goal models.GoalSpec, candidates []action.Spec) Plan {
	var p Plan

	kept := make([]action.Spec, 0, len(candidates))
	seen := make(map[action.Kind]bool, len(candidates))
	for _, c := range candidates {
		if c.Kind == action.KindPushWithLease {
			if goal.Mode == models.GoalResolveOnly {
				p.Notes = appendOnce(p.Notes, NotePushResolveOnly)
				continue
			}
			if state.Busy() {
				p.Notes = appendOnce(p.Notes, NotePushBusy)
				continue
			}
		}
		if seen[c.Kind] {
			continue
		}
		seen[c.Kind] = true
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return priority(cat, kept[i].Kind) < priority(cat, kept[j].Kind)
	})

	p.Actions = kept
	p.EstimatedCost = p.BaseCost()

	if goal.WantsPush() && !seen[action.KindPushWithLease] {
		switch {
		case goal.Mode == models.GoalResolveOnly:
			p.Notes = appendOnce(p.Notes, NotePushResolveOnly)
		case state.Busy():
			p.Notes = appendOnce(p.Notes, NotePushBusy)
		default:
			p.Notes = append(p.Notes, NotePushNotOffered)
		}
	}
	if goal.TestsMustPass && !seen[action.KindRunTests] {
		p.Notes = append(p.Notes, NoteTestsDeferred)
	}
	if len(p.Actions) == 0 {
		p.Notes = append(p.Notes, NoteEmpty)
	}
	return p
}

// ApplyCostHint scales the estimated cost by a clamped percentage and records the hint.
// The input plan is not modified.
func ApplyCostHint(p Plan, pct float64, note string) Plan {
	clamped, _ := ClampCostAdjustment(pct, MinCostAdjustment, MaxCostAdjustment)

	out := Plan{
		Actions:        append([]action.Spec(nil), p.Actions...),
		Notes:          append([]string(nil), p.Notes...),
		CostAdjustment: clamped,
	}
	out.EstimatedCost = p.BaseCost() * (1 + clamped)
	out.Notes = append(out.Notes, fmt.Sprintf("cost_adjustment_pct=%.3f", clamped))
	if note != "" {
		out.Notes = append(out.Notes, "plan_hint_note="+note)
	}
	return out
}

// ClampCostAdjustment restricts v to [min, max]. NaN and infinities count as no adjustment.
func ClampCostAdjustment(v, min, max float64) (float64, error) {
	if min > max || math.IsNaN(min) || math.IsNaN(max) {
		return 0, fmt.Errorf("%w: min %.3f exceeds max %.3f", ErrInvalidBounds, min, max)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < min {
		return min, nil
	}
	if v > max {
		return max, nil
	}
	return v, nil
}

func priority(cat *action.Catalogue, k action.Kind) int {
	if p := cat.Priority(k); p >= 0 {
		return p
	}
	return int(^uint(0) >> 1)
}

func appendOnce(notes []string, note string) []string {
	for _, n := range notes {
		if n == note {
			return notes
		}
	}
	return append(notes, note)
}
