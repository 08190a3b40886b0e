package models

import "time"

// GoalMode selects how far the maintenance run goes.
type GoalMode string

const (
	GoalRebaseToUpstream GoalMode = "rebase_to_upstream"
	GoalResolveOnly      GoalMode = "resolve_only"
	GoalPushWithLease    GoalMode = "push_with_lease"
)

// Resolution is the outcome a strategy rule applies to a conflicted path.
type Resolution string

const (
	ResolutionOurs        Resolution = "ours"
	ResolutionTheirs      Resolution = "theirs"
	ResolutionManual      Resolution = "manual"
	ResolutionMergeDriver Resolution = "merge-driver"
)

// AutoResolvable reports whether the resolution can be applied without an operator.
func (r Resolution) AutoResolvable() bool {
	return r == ResolutionOurs || r == ResolutionTheirs
}

// GoalSpec captures operator intent for a run.
type GoalSpec struct {
	Mode          GoalMode `json:"mode" yaml:"mode"`
	TestsMustPass bool     `json:"tests_must_pass" yaml:"tests_must_pass"`
	PushWithLease bool     `json:"push_with_lease" yaml:"push_with_lease"`
	TestsCommand  []string `json:"tests_command,omitempty" yaml:"tests_command"`
}

// WantsPush reports whether the goal asks for a lease-protected push.
func (g GoalSpec) WantsPush() bool {
	return g.PushWithLease || g.Mode == GoalPushWithLease
}

// StrategyRule maps a glob pattern to a resolution, optionally guarded by an expression.
type StrategyRule struct {
	Pattern    string     `json:"pattern" yaml:"pattern"`
	Resolution Resolution `json:"resolution" yaml:"resolution"`
	When       string     `json:"when,omitempty" yaml:"when"`
}

// MaxTestRuntimeSec is the largest accepted max_test_runtime_sec (one day).
const MaxTestRuntimeSec = 24 * 60 * 60

// Config is loaded once per invocation and is read-only afterwards.
type Config struct {
	Goal              GoalSpec       `json:"goal" yaml:"goal"`
	StrategyRules     []StrategyRule `json:"strategy_rules" yaml:"strategy_rules"`
	EnableRerere      bool           `json:"enable_rerere" yaml:"enable_rerere"`
	ConflictStyle     string         `json:"conflict_style" yaml:"conflict_style"`
	AllowForcePush    bool           `json:"allow_force_push" yaml:"allow_force_push"`
	DryRun            bool           `json:"dry_run" yaml:"dry_run"`
	MaxTestRuntimeSec int            `json:"max_test_runtime_sec" yaml:"max_test_runtime_sec"`
	MaxReplans        int            `json:"max_replans" yaml:"max_replans"`
}

// TestTimeout is the test command deadline, bounded to [0, MaxTestRuntimeSec].
func (c Config) TestTimeout() time.Duration {
	sec := min(max(c.MaxTestRuntimeSec, 0), MaxTestRuntimeSec)
	return time.Duration(sec) * time.Second
}
