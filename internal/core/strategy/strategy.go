// Package strategy matches conflicted paths against configured resolution rules.
package strategy

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/example/goapgit/internal/models"
)

// ErrInvalidRule is returned for rules that cannot be compiled.
var ErrInvalidRule = errors.New("invalid strategy rule")

// Env is the data a `when` guard can reference.
type Env struct {
	Path     string
	Base     string
	CType    string
	Hunks    int
	Branch   string
	Tracking string
	Rebase   bool
	Merge    bool
}

// NewEnv builds the guard environment for one conflicted path.
func NewEnv(state models.RepoState, c models.ConflictDetail) Env {
	return Env{
		Path:     c.Path,
		Base:     path.Base(c.Path),
		CType:    string(c.Type),
		Hunks:    c.HunkCount,
		Branch:   state.Ref.Branch,
		Tracking: state.Ref.Tracking,
		Rebase:   state.OngoingRebase,
		Merge:    state.OngoingMerge,
	}
}

func (e Env) vars() map[string]any {
	return map[string]any{
		"path":     e.Path,
		"base":     e.Base,
		"ctype":    e.CType,
		"hunks":    e.Hunks,
		"branch":   e.Branch,
		"tracking": e.Tracking,
		"rebase":   e.Rebase,
		"merge":    e.Merge,
	}
}

// Rule is a compiled strategy rule.
type Rule struct {
	Pattern    string
	Resolution models.Resolution
	When       string
	program    *vm.Program
}

// Compile validates every rule and compiles its guard.
func Compile(rules []models.StrategyRule) ([]Rule, error) {
	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		rule, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		compiled = append(compiled, rule)
	}
	return compiled, nil
}

// Validate reports the first problem with rule, or nil.
func Validate(rule models.StrategyRule) error {
	_, err := compileRule(rule)
	return err
}

func compileRule(r models.StrategyRule) (Rule, error) {
	pattern := strings.TrimSpace(r.Pattern)
	if pattern == "" {
		return Rule{}, fmt.Errorf("%w: pattern must not be empty", ErrInvalidRule)
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return Rule{}, fmt.Errorf("%w: pattern %q: %v", ErrInvalidRule, pattern, err)
	}
	rule := Rule{Pattern: pattern, Resolution: r.Resolution, When: strings.TrimSpace(r.When)}
	if rule.When == "" {
		return rule, nil
	}
	program, err := expr.Compile(rule.When, expr.Env(Env{}.vars()), expr.AsBool())
	if err != nil {
		return Rule{}, fmt.Errorf("%w: when %q: %v", ErrInvalidRule, rule.When, err)
	}
	rule.program = program
	return rule, nil
}

// MatchesPath reports whether the glob matches the full path or, failing that, its base name.
func (r Rule) MatchesPath(p string) bool {
	if ok, _ := path.Match(r.Pattern, p); ok {
		return true
	}
	ok, _ := path.Match(r.Pattern, path.Base(p))
	return ok
}

// Applies reports whether the rule matches and its guard holds.
func (r Rule) Applies(env Env) (bool, error) {
	if !r.MatchesPath(env.Path) {
		return false, nil
	}
	if r.program == nil {
		return true, nil
	}
	out, err := expr.Run(r.program, env.vars())
	if err != nil {
		return false, fmt.Errorf("eval when %q: %w", r.When, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("when %q did not return bool (got %T)", r.When, out)
	}
	return result, nil
}

// Decision is the resolution chosen for one conflicted path.
type Decision struct {
	Path       string
	Resolution models.Resolution // empty when no rule matched
	Pattern    string
	// GuardErrors holds the when-expressions that failed to evaluate for this path.
	GuardErrors []error
}

// Matched reports whether a rule selected this path.
func (d Decision) Matched() bool { return d.Resolution != "" }

// AutoResolvable reports whether the decision can be applied without an operator.
func (d Decision) AutoResolvable() bool { return d.Resolution.AutoResolvable() }

// Decide picks the first applying rule for each conflict.
// A guard evaluation error skips that rule and is kept on the decision.
func Decide(rules []Rule, state models.RepoState, conflicts []models.ConflictDetail) []Decision {
	decisions := make([]Decision, 0, len(conflicts))
	for _, c := range conflicts {
		d := Decision{Path: c.Path}
		env := NewEnv(state, c)
		for _, r := range rules {
			ok, err := r.Applies(env)
			if err != nil {
				d.GuardErrors = append(d.GuardErrors, err)
				continue
			}
			if !ok {
				continue
			}
			d.Resolution = r.Resolution
			d.Pattern = r.Pattern
			break
		}
		decisions = append(decisions, d)
	}
	return decisions
}
