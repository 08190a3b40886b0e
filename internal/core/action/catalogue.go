package action

import (
	"encoding/json"
	"strings"

	"github.com/example/goapgit/internal/models"
)

// DefaultRemote is used when a tracking ref carries no remote component.
const DefaultRemote = "origin"

// Spec is one candidate action with its cost and typed parameters.
type Spec struct {
	Kind      Kind
	Cost      float64
	Rationale string
	Params    Params
}

// Name returns the stable kind name.
func (s Spec) Name() string { return s.Kind.String() }

// MarshalJSON flattens params into a string map.
func (s Spec) MarshalJSON() ([]byte, error) {
	params := map[string]string{}
	if s.Params != nil {
		params = s.Params.Fields()
	}
	return json.Marshal(struct {
		Name      string            `json:"name"`
		Cost      float64           `json:"cost"`
		Rationale string            `json:"rationale"`
		Params    map[string]string `json:"params"`
	}{s.Kind.String(), s.Cost, s.Rationale, params})
}

// Precondition builds the spec for a kind when it applies to the state.
// A false result means "not applicable now" and is never an error.
type Precondition func(state models.RepoState, cfg models.Config) (Spec, bool)

// Explanation documents why an action exists and what could be done instead.
type Explanation struct {
	Reason       string
	Alternatives []string
}

type entry struct {
	kind        Kind
	cost        float64
	rationale   string
	guard       func(models.RepoState, models.Config) GuardResult
	params      func(models.RepoState, models.Config) Params
	explanation Explanation
}

// Catalogue is the immutable, ordered set of known actions.
type Catalogue struct {
	entries []entry
	index   map[Kind]int
}

// Default builds the standard catalogue in priority order.
func Default() *Catalogue {
	entries := []entry{
		{
			kind:      KindCreateBackupRef,
			cost:      0.4,
			rationale: "Create a recoverable snapshot before making changes.",
			guard:     CanAlwaysRun,
			explanation: Explanation{
				Reason: "Create a timestamped backup ref so HEAD can be restored if later steps fail.",
				Alternatives: []string{
					"Skip the backup and rely on reflog entries for recovery.",
					"Create a lightweight branch instead of an update-ref entry.",
				},
			},
		},
		{
			kind:      KindEnsureCleanOrStash,
			cost:      0.6,
			rationale: "Ensure the working tree is clean or safely stashed.",
			guard:     CanAlwaysRun,
			explanation: Explanation{
				Reason: "Guarantee a clean working tree before automated operations continue.",
				Alternatives: []string{
					"Abort the workflow and ask the operator to clean up manually.",
					"Create a temporary worktree rather than stashing changes.",
				},
			},
		},
		{
			kind:      KindAutoTrivialResolve,
			cost:      0.8,
			rationale: "Reuse rerere knowledge to resolve trivial conflicts.",
			guard:     CanAlwaysRun,
			explanation: Explanation{
				Reason: "Reuse git rerere to automatically apply previously recorded resolutions.",
				Alternatives: []string{
					"Resolve conflicts manually to confirm each change.",
					"Run a domain specific merge driver for known file types.",
				},
			},
		},
		{
			kind:      KindPreviewMergeConflicts,
			cost:      0.9,
			rationale: "Simulate the upstream merge to anticipate conflicts before rebasing.",
			guard:     CanSyncWithUpstream,
			params: func(s models.RepoState, _ models.Config) Params {
				return PreviewParams{Ours: "HEAD", Theirs: s.Ref.Tracking}
			},
			explanation: Explanation{
				Reason: "Use git merge-tree to predict upcoming conflicts before applying a rebase.",
				Alternatives: []string{
					"Skip the prediction step and resolve conflicts if they arise during the rebase.",
					"Create a throwaway worktree to experiment with a real merge instead of a preview.",
				},
			},
		},
		{
			kind:      KindApplyPathStrategy,
			cost:      1.2,
			rationale: "Apply configured conflict resolution strategies to matching paths.",
			guard:     CanApplyPathStrategy,
			params: func(_ models.RepoState, c models.Config) Params {
				return StrategyParams{RuleCount: len(c.StrategyRules)}
			},
			explanation: Explanation{
				Reason: "Use configured strategy rules to prefer ours/theirs on matching paths.",
				Alternatives: []string{
					"Escalate to manual resolution in an editor.",
					"Invoke a custom merge driver tuned for the file type.",
				},
			},
		},
		{
			kind:      KindFetchAll,
			cost:      1.1,
			rationale: "Fetch the latest remote refs before attempting to rebase onto upstream.",
			guard:     CanSyncWithUpstream,
			params: func(s models.RepoState, _ models.Config) Params {
				remote, _ := SplitTracking(s.Ref.Tracking)
				return FetchParams{Remote: remote}
			},
			explanation: Explanation{
				Reason: "Refresh local knowledge of the upstream branch to avoid rebasing on stale commits.",
				Alternatives: []string{
					"Skip the fetch and rely on locally cached refs, risking conflicts with unseen commits.",
					"Fetch only the tracked branch instead of the whole remote.",
				},
			},
		},
		{
			kind:      KindRebaseOntoUpstream,
			cost:      1.0,
			rationale: "Replay local commits on top of the latest upstream revision.",
			guard:     CanSyncWithUpstream,
			params: func(s models.RepoState, c models.Config) Params {
				return RebaseOntoParams{
					Upstream:   s.Ref.Tracking,
					UpdateRefs: c.Goal.Mode != models.GoalResolveOnly,
				}
			},
			explanation: Explanation{
				Reason: "Align the branch with its tracked upstream so subsequent pushes fast-forward cleanly.",
				Alternatives: []string{
					"Merge the upstream branch instead of rebasing, accepting a merge commit.",
					"Abort automated recovery and request manual intervention.",
				},
			},
		},
		{
			kind:      KindRebaseContinueOrAbort,
			cost:      1.5,
			rationale: "Complete or abort the ongoing rebase safely.",
			guard:     CanContinueOrAbort,
			params: func(models.RepoState, models.Config) Params {
				return ContinueOrAbortParams{}
			},
			explanation: Explanation{
				Reason: "Continue the rebase if conflicts are cleared, otherwise abort to restore HEAD.",
				Alternatives: []string{
					"Abort immediately without attempting to continue.",
					"Skip rebase continuation and return control to the operator.",
				},
			},
		},
		{
			kind:      KindPushWithLease,
			cost:      1.6,
			rationale: "Publish local commits using --force-with-lease once the branch is clean.",
			guard:     CanPushWithLease,
			params: func(s models.RepoState, _ models.Config) Params {
				remote, branch := SplitTracking(s.Ref.Tracking)
				return PushParams{Remote: remote, RemoteBranch: branch, LocalBranch: s.Ref.Branch}
			},
			explanation: Explanation{
				Reason: "Update the remote branch with local commits using force-with-lease safeguards.",
				Alternatives: []string{
					"Push without --force-with-lease and risk overwriting remote updates.",
					"Pause automation and request a human to review the outgoing commits.",
				},
			},
		},
		{
			kind:      KindRunTests,
			cost:      1.2,
			rationale: "Execute the configured test command to validate the branch before pushing.",
			guard:     CanRunTests,
			params: func(_ models.RepoState, c models.Config) Params {
				return TestParams{Timeout: c.TestTimeout()}
			},
			explanation: Explanation{
				Reason: "Ensure automated checks pass before publishing branch updates.",
				Alternatives: []string{
					"Skip the automated suite and rely solely on manual review.",
					"Run a lighter smoke-test suite instead of the full command.",
				},
			},
		},
		{
			kind:      KindExplainRangeDiff,
			cost:      1.3,
			rationale: "Summarise how local commits differ from the tracked upstream branch.",
			guard:     CanExplainRangeDiff,
			params: func(s models.RepoState, _ models.Config) Params {
				return RangeDiffParams{Tracking: s.Ref.Tracking}
			},
			explanation: Explanation{
				Reason: "Use git range-diff to describe the delta between local commits and upstream history.",
				Alternatives: []string{
					"Review the commits manually with git log or git show.",
					"Generate a patch series and inspect it with git format-patch.",
				},
			},
		},
	}

	index := make(map[Kind]int, len(entries))
	for i, e := range entries {
		index[e.kind] = i
	}
	return &Catalogue{entries: entries, index: index}
}

// Kinds returns every kind in priority order.
func (c *Catalogue) Kinds() []Kind {
	kinds := make([]Kind, len(c.entries))
	for i, e := range c.entries {
		kinds[i] = e.kind
	}
	return kinds
}

// Priority returns the position of k in the catalogue, or -1 when unknown.
func (c *Catalogue) Priority(k Kind) int {
	if i, ok := c.index[k]; ok {
		return i
	}
	return -1
}

// Precondition returns the applicability check for k.
func (c *Catalogue) Precondition(k Kind) Precondition {
	i, ok := c.index[k]
	if !ok {
		return func(models.RepoState, models.Config) (Spec, bool) { return Spec{}, false }
	}
	e := c.entries[i]
	return func(state models.RepoState, cfg models.Config) (Spec, bool) {
		if !e.guard(state, cfg).Allowed {
			return Spec{}, false
		}
		return e.spec(state, cfg), true
	}
}

// Check evaluates the guard for k and explains a refusal.
func (c *Catalogue) Check(k Kind, state models.RepoState, cfg models.Config) GuardResult {
	i, ok := c.index[k]
	if !ok {
		return deny("unknown action %s", k)
	}
	return c.entries[i].guard(state, cfg)
}

// Specs returns every applicable action in catalogue order.
func (c *Catalogue) Specs(state models.RepoState, cfg models.Config) []Spec {
	return c.SpecsExcluding(state, cfg, nil)
}

// SpecsExcluding is Specs without the kinds in skip.
func (c *Catalogue) SpecsExcluding(state models.RepoState, cfg models.Config, skip map[Kind]bool) []Spec {
	var specs []Spec
	for _, e := range c.entries {
		if skip[e.kind] {
			continue
		}
		if !e.guard(state, cfg).Allowed {
			continue
		}
		specs = append(specs, e.spec(state, cfg))
	}
	return specs
}

// Explain returns the reason and alternatives recorded for k.
func (c *Catalogue) Explain(k Kind) (Explanation, bool) {
	i, ok := c.index[k]
	if !ok {
		return Explanation{}, false
	}
	exp := c.entries[i].explanation
	exp.Alternatives = append([]string(nil), exp.Alternatives...)
	return exp, true
}

func (e entry) spec(state models.RepoState, cfg models.Config) Spec {
	var params Params = NoParams{}
	if e.params != nil {
		params = e.params(state, cfg)
	}
	return Spec{Kind: e.kind, Cost: e.cost, Rationale: e.rationale, Params: params}
}

// SplitTracking splits "remote/branch" at the first slash.
// A tracking name without a slash is assumed to live on DefaultRemote.
func SplitTracking(tracking string) (remote, branch string) {
	remote, branch, found := strings.Cut(tracking, "/")
	if !found {
		return DefaultRemote, tracking
	}
	if remote == "" {
		remote = DefaultRemote
	}
	if branch == "" {
		branch = tracking
	}
	return remote, branch
}
