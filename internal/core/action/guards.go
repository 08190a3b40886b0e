package action

import (
	"fmt"

	"github.com/example/goapgit/internal/models"
)

// GuardResult represents the outcome of a precondition evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// CanAlwaysRun admits the safety and rerere actions unconditionally.
func CanAlwaysRun(models.RepoState, models.Config) GuardResult {
	return allow()
}

// CanSyncWithUpstream evaluates whether upstream work (preview, fetch, rebase) applies.
// Rules:
// - Branch must track an upstream
// - Upstream must have commits we lack
// - No rebase or merge in progress
// - No unresolved conflicts
func CanSyncWithUpstream(state models.RepoState, _ models.Config) GuardResult {
	if !state.Ref.HasTracking() {
		return deny("branch %s has no upstream", state.Ref.Branch)
	}
	if state.DivergedRemote <= 0 {
		return deny("branch is not behind %s", state.Ref.Tracking)
	}
	if r := notBusy(state); !r.Allowed {
		return r
	}
	if state.HasConflicts() {
		return deny("%d path(s) still conflicted", len(state.Conflicts))
	}
	return allow()
}

// CanApplyPathStrategy requires at least one configured strategy rule.
func CanApplyPathStrategy(_ models.RepoState, cfg models.Config) GuardResult {
	if len(cfg.StrategyRules) == 0 {
		return deny("no strategy rules configured")
	}
	return allow()
}

// CanContinueOrAbort requires a rebase in progress.
func CanContinueOrAbort(state models.RepoState, _ models.Config) GuardResult {
	if !state.OngoingRebase {
		return deny("no rebase in progress")
	}
	return allow()
}

// CanPushWithLease evaluates whether a lease-protected push applies.
// Rules:
// - Branch must track an upstream
// - Goal must request a push (flag or mode)
// - No rebase or merge in progress
// - There must be local commits to publish
func CanPushWithLease(state models.RepoState, cfg models.Config) GuardResult {
	if !state.Ref.HasTracking() {
		return deny("branch %s has no upstream", state.Ref.Branch)
	}
	if !cfg.Goal.WantsPush() {
		return deny("goal does not request a push")
	}
	if r := notBusy(state); !r.Allowed {
		return r
	}
	if state.DivergedLocal <= 0 && !state.HasUnpushedCommits {
		return deny("no local commits to publish")
	}
	return allow()
}

// CanRunTests evaluates whether the quality gate can run now.
// Rules:
// - Goal must require passing tests
// - No unresolved conflicts and a clean working tree
// - No rebase or merge in progress
func CanRunTests(state models.RepoState, cfg models.Config) GuardResult {
	if !cfg.Goal.TestsMustPass {
		return deny("goal does not require tests")
	}
	if state.HasConflicts() {
		return deny("%d path(s) still conflicted", len(state.Conflicts))
	}
	if !state.WorkingTreeClean {
		return deny("working tree is dirty")
	}
	return notBusy(state)
}

// CanExplainRangeDiff evaluates whether there are local commits worth summarising.
func CanExplainRangeDiff(state models.RepoState, _ models.Config) GuardResult {
	if !state.Ref.HasTracking() {
		return deny("branch %s has no upstream", state.Ref.Branch)
	}
	if state.DivergedLocal <= 0 && !state.HasUnpushedCommits {
		return deny("no local commits to compare")
	}
	if r := notBusy(state); !r.Allowed {
		return r
	}
	if state.HasConflicts() {
		return deny("%d path(s) still conflicted", len(state.Conflicts))
	}
	return allow()
}

func notBusy(state models.RepoState) GuardResult {
	switch {
	case state.OngoingRebase:
		return deny("rebase in progress")
	case state.OngoingMerge:
		return deny("merge in progress")
	}
	return allow()
}
