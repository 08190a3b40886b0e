package app

import (
	"context"
	"fmt"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/core/repo"
)

// rebaseOntoUpstream replays local commits on top of the upstream.
// A conflicting rebase fails the step; the replan then offers continue-or-abort.
func (r *ActionRunner) rebaseOntoUpstream(ctx context.Context, params action.Params) (string, error) {
	p, ok := params.(action.RebaseOntoParams)
	if !ok || p.Upstream == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParams, action.KindRebaseOntoUpstream)
	}
	if err := r.apply(ctx, effects.RebaseOnto(p.Upstream, p.Onto, r.cfg.ConflictStyle, p.UpdateRefs)); err != nil {
		return "", err
	}
	return "rebased onto " + p.Upstream, nil
}

// rebaseContinueOrAbort continues when every conflict is staged, otherwise aborts
// and restores HEAD from the backup ref.
func (r *ActionRunner) rebaseContinueOrAbort(ctx context.Context, params action.Params) (string, error) {
	out, err := gitOutput(ctx, r.live, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return "", fmt.Errorf("failed to list unmerged paths: %w", err)
	}
	remaining := repo.ParseLines(out)
	if len(remaining) == 0 {
		if err := r.apply(ctx, effects.RebaseContinue()); err != nil {
			return "", err
		}
		return "rebase continued", nil
	}

	backup := ""
	if p, ok := params.(action.ContinueOrAbortParams); ok {
		backup = p.BackupRef
	}
	if backup == "" {
		backup = r.backupRef
	}
	if backup == "" {
		if backup, err = r.latestBackupRef(ctx); err != nil {
			return "", err
		}
	}

	effs := []effects.Effect{effects.RebaseAbort()}
	if backup != "" {
		effs = append(effs, effects.ResetHard(backup))
	} else {
		r.logger.Warn("no backup ref found; HEAD left where the abort put it")
	}
	if err := r.apply(ctx, effs...); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %s unresolved", ErrRebaseAborted, plural(len(remaining), "path"))
}

func (r *ActionRunner) latestBackupRef(ctx context.Context) (string, error) {
	out, err := gitOutput(ctx, r.live, "for-each-ref", "--sort=-creatordate", "--count=1",
		"--format=%(refname)", effects.BackupRefPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up backup refs: %w", err)
	}
	return out, nil
}
