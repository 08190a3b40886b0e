package app

import (
	"context"
	"fmt"

	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/core/repo"
)

// createBackupRef pins HEAD under refs/backup/goap so a failed rebase can be undone.
func (r *ActionRunner) createBackupRef(ctx context.Context) (string, error) {
	sha, err := gitOutput(ctx, r.actions, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	ref := effects.BackupRefName(r.now())
	if err := r.apply(ctx, effects.CreateBackupRef(ref, sha)); err != nil {
		return "", err
	}
	r.backupRef = ref
	r.logger.Info("backup ref created", "ref", ref, "sha", sha)
	return fmt.Sprintf("backup %s -> %s", ref, shortSHA(sha)), nil
}

// ensureCleanOrStash stashes local changes, including untracked files.
// A tree with unmerged paths is left alone: stashing would drop the conflict state.
func (r *ActionRunner) ensureCleanOrStash(ctx context.Context) (string, error) {
	out, err := gitRaw(ctx, r.live, "status", "--porcelain=v1", "-z")
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	entries, err := repo.ParsePorcelainZ(out)
	if err != nil {
		return "", err
	}
	clean, conflicted := repo.StatusSummary(entries)
	switch {
	case len(conflicted) > 0:
		r.logger.Warn("stash skipped: unmerged paths present", "paths", len(conflicted))
		return "stash skipped: " + plural(len(conflicted), "unmerged path"), nil
	case clean:
		return "working tree already clean", nil
	}
	if err := r.apply(ctx, effects.StashPush(r.now())); err != nil {
		return "", err
	}
	return "local changes stashed", nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
