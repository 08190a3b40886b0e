package config

import (
	"fmt"
	"strings"

	"github.com/example/goapgit/internal/core/strategy"
	"github.com/example/goapgit/internal/models"
)

// ValidationError describes a single validation problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationError) Unwrap() error { return ErrInvalidConfig }

// ValidationErrors is every problem found in one configuration.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Unwrap() error { return ErrInvalidConfig }

var validModes = map[models.GoalMode]bool{
	models.GoalRebaseToUpstream: true,
	models.GoalResolveOnly:      true,
	models.GoalPushWithLease:    true,
}

var validResolutions = map[models.Resolution]bool{
	models.ResolutionOurs:        true,
	models.ResolutionTheirs:      true,
	models.ResolutionManual:      true,
	models.ResolutionMergeDriver: true,
}

var validConflictStyles = map[string]bool{
	"merge":  true,
	"diff3":  true,
	"zdiff3": true,
}

// Validate checks a configuration and returns all problems found.
func Validate(cfg models.Config) ValidationErrors {
	var errs ValidationErrors

	if !validModes[cfg.Goal.Mode] {
		errs = append(errs, ValidationError{
			Field:   "goal.mode",
			Message: fmt.Sprintf("unknown mode %q (want rebase_to_upstream, resolve_only or push_with_lease)", cfg.Goal.Mode),
		})
	}
	if cfg.Goal.TestsMustPass && len(cfg.Goal.TestsCommand) == 0 {
		errs = append(errs, ValidationError{
			Field:   "goal.tests_command",
			Message: "required when tests_must_pass is true",
		})
	}

	for i, rule := range cfg.StrategyRules {
		field := fmt.Sprintf("strategy_rules.%d", i)
		if !validResolutions[rule.Resolution] {
			errs = append(errs, ValidationError{
				Field:   field + ".resolution",
				Message: fmt.Sprintf("unknown resolution %q", rule.Resolution),
			})
		}
		if err := strategy.Validate(rule); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
	}

	if !validConflictStyles[cfg.ConflictStyle] {
		errs = append(errs, ValidationError{
			Field:   "conflict_style",
			Message: fmt.Sprintf("unknown style %q (want merge, diff3 or zdiff3)", cfg.ConflictStyle),
		})
	}
	if cfg.MaxTestRuntimeSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_test_runtime_sec",
			Message: "must not be negative",
		})
	} else if cfg.MaxTestRuntimeSec > models.MaxTestRuntimeSec {
		errs = append(errs, ValidationError{
			Field:   "max_test_runtime_sec",
			Message: fmt.Sprintf("must not exceed %d", models.MaxTestRuntimeSec),
		})
	}
	if cfg.MaxReplans < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_replans",
			Message: "must not be negative",
		})
	}

	return errs
}
