package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/detection"
	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/core/repo"
	"github.com/example/goapgit/internal/core/strategy"
	"github.com/example/goapgit/internal/ports/secondary"
)

// autoTrivialResolve lets rerere replay recorded resolutions, then stages every
// unmerged path whose conflict markers are gone.
func (r *ActionRunner) autoTrivialResolve(ctx context.Context) (string, error) {
	if r.cfg.EnableRerere {
		if err := r.ensureRerere(ctx); err != nil {
			return "", err
		}
	}

	conflicted, err := r.unmergedPaths(ctx)
	if err != nil {
		return "", err
	}
	var staged []string
	for _, p := range conflicted {
		content, err := r.readFile(filepath.Join(r.live.Dir(), filepath.FromSlash(p)))
		if err == nil && detection.HasConflictMarkers(content) {
			continue
		}
		// A deleted side leaves no file; staging records the resolution.
		staged = append(staged, p)
	}
	if len(staged) == 0 {
		return "no trivially resolved paths", nil
	}
	if err := r.apply(ctx, effects.Add(staged...)); err != nil {
		return "", err
	}
	return "staged " + plural(len(staged), "resolved path"), nil
}

func (r *ActionRunner) ensureRerere(ctx context.Context) error {
	enabled, err := gitOutput(ctx, r.live, "config", "--bool", "rerere.enabled")
	var cmdErr *secondary.CommandError
	switch {
	case errors.As(err, &cmdErr):
		enabled = "" // unset
	case err != nil:
		return err
	}
	effs := []effects.Effect{}
	if enabled != "true" {
		effs = append(effs, effects.EnableRerere())
	}
	effs = append(effs, effects.Rerere())
	return r.apply(ctx, effs...)
}

// previewMergeConflicts simulates the merge of theirs into ours without touching the tree.
func (r *ActionRunner) previewMergeConflicts(ctx context.Context, params action.Params) (string, error) {
	p, ok := params.(action.PreviewParams)
	if !ok || p.Theirs == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParams, action.KindPreviewMergeConflicts)
	}
	ours := p.Ours
	if ours == "" {
		ours = "HEAD"
	}
	out, err := gitRaw(ctx, r.live, "merge-tree", "--write-tree", "--name-only", "--no-messages", ours, p.Theirs)
	var cmdErr *secondary.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ReturnCode == 1 && !cmdErr.TimedOut {
		// Exit 1 means the merge has conflicts.
		out, err = cmdErr.Stdout, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to preview merge of %s: %w", p.Theirs, err)
	}
	paths := repo.ParseMergeTreeNames(out)
	if len(paths) == 0 {
		return "no conflicts predicted", nil
	}
	r.logger.Info("merge preview predicts conflicts", "upstream", p.Theirs, "paths", len(paths))
	return fmt.Sprintf("%s predicted to conflict: %s", plural(len(paths), "path"), strings.Join(paths, ", ")), nil
}

// applyPathStrategy resolves conflicted paths with configured rules.
// Only ours/theirs are applied; other resolutions are left for an operator.
func (r *ActionRunner) applyPathStrategy(ctx context.Context) (string, error) {
	rules, err := strategy.Compile(r.cfg.StrategyRules)
	if err != nil {
		return "", err
	}
	if r.observer == nil {
		return "", fmt.Errorf("%w: no observer for %s", ErrMissingParams, action.KindApplyPathStrategy)
	}
	state, err := r.observer.Observe(ctx)
	if err != nil {
		return "", err
	}

	var resolved, escalated, unmatched int
	var effs []effects.Effect
	for _, d := range strategy.Decide(rules, state, state.Conflicts) {
		for _, gerr := range d.GuardErrors {
			r.logger.Debug("strategy rule skipped", "path", d.Path, "error", gerr)
		}
		switch {
		case d.AutoResolvable():
			effs = append(effs, effects.ResolveWithSide(string(d.Resolution), d.Path))
			resolved++
		case d.Matched():
			effs = append(effs, effects.LogEffect{
				Level:   "warn",
				Message: "path needs manual resolution",
				Fields:  map[string]any{"path": d.Path, "resolution": string(d.Resolution), "pattern": d.Pattern},
			})
			escalated++
		default:
			unmatched++
		}
	}
	if err := r.apply(ctx, effs...); err != nil {
		return "", err
	}
	return fmt.Sprintf("resolved %d, escalated %d, unmatched %d", resolved, escalated, unmatched), nil
}

// unmergedPaths reads the unmerged paths through the live runner.
func (r *ActionRunner) unmergedPaths(ctx context.Context) ([]string, error) {
	out, err := gitRaw(ctx, r.live, "status", "--porcelain=v1", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	entries, err := repo.ParsePorcelainZ(out)
	if err != nil {
		return nil, err
	}
	_, conflicted := repo.StatusSummary(entries)
	return conflicted, nil
}
