package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/goapgit/internal/core/detection"
	"github.com/example/goapgit/internal/core/repo"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
)

// GitObserver derives RepoState snapshots through a live command runner.
type GitObserver struct {
	runner   secondary.CommandRunner
	readFile func(string) ([]byte, error)
}

// NewGitObserver creates an observer. The runner must not be a dry runner for
// anything but read-only commands, which is all the observer issues.
func NewGitObserver(runner secondary.CommandRunner) *GitObserver {
	return &GitObserver{runner: runner, readFile: os.ReadFile}
}

// Observe builds a fresh snapshot of the repository.
func (o *GitObserver) Observe(ctx context.Context) (models.RepoState, error) {
	dir := o.runner.Dir()
	state := models.RepoState{RepoPath: dir}

	gitDir, err := o.read(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return models.RepoState{}, fmt.Errorf("failed to locate git directory: %w", err)
	}
	gitDir = strings.TrimSpace(gitDir)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}

	branch, err := o.readOptional(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return models.RepoState{}, err
	}
	if branch == "" {
		branch = "HEAD"
	}
	state.Ref.Branch = branch

	if state.Ref.SHA, err = o.readOptional(ctx, "rev-parse", "--verify", "-q", "HEAD"); err != nil {
		return models.RepoState{}, err
	}
	if state.Ref.Tracking, err = o.readOptional(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}"); err != nil {
		return models.RepoState{}, err
	}

	if err := o.observeDivergence(ctx, &state); err != nil {
		return models.RepoState{}, err
	}

	out, err := o.read(ctx, "status", "--porcelain=v1", "-z")
	if err != nil {
		return models.RepoState{}, fmt.Errorf("failed to read status: %w", err)
	}
	entries, err := repo.ParsePorcelainZ(out)
	if err != nil {
		return models.RepoState{}, err
	}
	clean, conflicted := repo.StatusSummary(entries)
	state.WorkingTreeClean = clean

	state.OngoingRebase = exists(filepath.Join(gitDir, "rebase-merge")) || exists(filepath.Join(gitDir, "rebase-apply"))
	state.OngoingMerge = exists(filepath.Join(gitDir, "MERGE_HEAD"))

	state.Conflicts = o.describeConflicts(dir, conflicted)
	return state, nil
}

func (o *GitObserver) observeDivergence(ctx context.Context, state *models.RepoState) error {
	if state.Ref.SHA == "" {
		return nil
	}
	if state.Ref.HasTracking() {
		out, err := o.read(ctx, "rev-list", "--left-right", "--count", state.Ref.Tracking+"...HEAD")
		if err != nil {
			return fmt.Errorf("failed to count divergence from %s: %w", state.Ref.Tracking, err)
		}
		ahead, behind, err := repo.ParseAheadBehind(out)
		if err != nil {
			return err
		}
		state.DivergedLocal, state.DivergedRemote = ahead, behind
	} else {
		out, err := o.read(ctx, "rev-list", "--count", "HEAD", "--not", "--remotes")
		if err != nil {
			return fmt.Errorf("failed to count unpushed commits: %w", err)
		}
		if state.DivergedLocal, err = repo.ParseCount(out); err != nil {
			return err
		}
	}
	state.HasUnpushedCommits = state.DivergedLocal > 0
	return nil
}

func (o *GitObserver) describeConflicts(dir string, paths []string) []models.ConflictDetail {
	conflicts := make([]models.ConflictDetail, 0, len(paths))
	for _, p := range paths {
		content, err := o.readFile(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			conflicts = append(conflicts, models.ConflictDetail{Path: p, Type: models.ConflictText})
			continue
		}
		conflicts = append(conflicts, models.ConflictDetail{
			Path:      p,
			HunkCount: detection.CountHunks(content),
			Type:      detection.Classify(p, content),
		})
	}
	return conflicts
}

// read runs a git command and returns stdout.
func (o *GitObserver) read(ctx context.Context, args ...string) (string, error) {
	res, err := o.runner.Run(ctx, append([]string{"git"}, args...))
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// readOptional is read where a nonzero exit means "absent".
func (o *GitObserver) readOptional(ctx context.Context, args ...string) (string, error) {
	out, err := o.read(ctx, args...)
	if errors.Is(err, secondary.ErrCommandFailed) && !errors.Is(err, secondary.ErrCommandTimeout) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Ensure GitObserver implements the interface
var _ secondary.RepoObserver = (*GitObserver)(nil)
