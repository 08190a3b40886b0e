package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/effects"
)

func (r *ActionRunner) runTests(ctx context.Context, params action.Params) (string, error) {
	argv := r.cfg.Goal.TestsCommand
	if len(argv) == 0 {
		return "", fmt.Errorf("%w: no tests command configured", ErrMissingParams)
	}
	p, _ := params.(action.TestParams)
	if err := r.apply(ctx, effects.RunCommand(argv, p.Timeout)); err != nil {
		return "", err
	}
	return "tests passed: " + strings.Join(argv, " "), nil
}

// explainRangeDiff compares upstream history with local history since their merge base.
func (r *ActionRunner) explainRangeDiff(ctx context.Context, params action.Params) (string, error) {
	p, ok := params.(action.RangeDiffParams)
	if !ok || p.Tracking == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParams, action.KindExplainRangeDiff)
	}
	base, err := gitOutput(ctx, r.live, "merge-base", "HEAD", p.Tracking)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base with %s: %w", p.Tracking, err)
	}
	if base == "" {
		return "", fmt.Errorf("no merge base between HEAD and %s", p.Tracking)
	}
	before, after := base+".."+p.Tracking, base+"..HEAD"
	summary, err := gitOutput(ctx, r.live, "range-diff", before, after)
	if err != nil {
		return "", fmt.Errorf("failed to compute range-diff: %w", err)
	}
	r.logger.Info("range-diff summary generated", "before", before, "after", after, "has_output", summary != "")
	return summary, nil
}
