package app

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/models"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)

func newTestActionRunner(runner *mockRunner, cfg models.Config, files map[string]string, obs *mockObserver) *ActionRunner {
	deps := ActionRunnerDeps{
		Actions:  runner,
		Live:     runner,
		Config:   cfg,
		Now:      func() time.Time { return fixedNow },
		ReadFile: fileReader(files),
	}
	if obs != nil {
		deps.Observer = obs
	}
	return NewActionRunner(deps)
}

func TestActionRunner_CreateBackupRef(t *testing.T) {
	runner := newMockRunner().on("abc123def4567890\n", nil, "git", "rev-parse", "HEAD")
	r := newTestActionRunner(runner, models.Config{}, nil, nil)

	out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindCreateBackupRef})
	requireNoError(t, err)

	ref := effects.BackupRefName(fixedNow)
	if !runner.called("git", "update-ref", ref, "abc123def4567890", "") {
		t.Errorf("expected update-ref with empty old value, calls: %v", runner.calls)
	}
	if r.BackupRef() != ref {
		t.Errorf("expected session backup ref %s, got %s", ref, r.BackupRef())
	}
	if !strings.Contains(out, "abc123def456") {
		t.Errorf("expected short sha in output, got %q", out)
	}
}

func TestActionRunner_EnsureCleanOrStash(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		wantStash bool
		wantOut   string
	}{
		{"clean tree", "", false, "working tree already clean"},
		{"dirty tree", " M a.txt\x00?? new.txt\x00", true, "local changes stashed"},
		{"unmerged paths left alone", "UU a.txt\x00 M b.txt\x00", false, "stash skipped: 1 unmerged path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newMockRunner().on(tt.status, nil, "git", "status", "--porcelain=v1", "-z")
			r := newTestActionRunner(runner, models.Config{}, nil, nil)

			out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindEnsureCleanOrStash})
			requireNoError(t, err)

			stashed := runner.calledPrefix("git stash push --include-untracked -m goapgit-autostash-")
			if stashed != tt.wantStash {
				t.Errorf("stash called = %v, want %v", stashed, tt.wantStash)
			}
			if out != tt.wantOut {
				t.Errorf("output = %q, want %q", out, tt.wantOut)
			}
		})
	}
}

func TestActionRunner_AutoTrivialResolve(t *testing.T) {
	runner := newMockRunner().
		on("", commandError(1, "", "git", "config", "--bool", "rerere.enabled"), "git", "config", "--bool", "rerere.enabled").
		on("UU a.txt\x00UU b.txt\x00DU gone.txt\x00", nil, "git", "status", "--porcelain=v1", "-z")
	files := map[string]string{
		"a.txt": "resolved\n",
		"b.txt": "<<<<<<< HEAD\nx\n=======\ny\n>>>>>>> other\n",
	}
	r := newTestActionRunner(runner, models.Config{EnableRerere: true}, files, nil)

	out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindAutoTrivialResolve})
	requireNoError(t, err)

	if !runner.called("git", "config", "rerere.enabled", "true") {
		t.Error("expected rerere to be enabled when unset")
	}
	if !runner.called("git", "rerere") {
		t.Error("expected git rerere to run")
	}
	if !runner.called("git", "add", "--", "a.txt", "gone.txt") {
		t.Errorf("expected resolved paths staged after --, calls: %v", runner.calls)
	}
	if out != "staged 2 resolved paths" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestActionRunner_AutoTrivialResolve_RerereAlreadyOn(t *testing.T) {
	runner := newMockRunner().on("true\n", nil, "git", "config", "--bool", "rerere.enabled")
	r := newTestActionRunner(runner, models.Config{EnableRerere: true}, nil, nil)

	out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindAutoTrivialResolve})
	requireNoError(t, err)

	if runner.called("git", "config", "rerere.enabled", "true") {
		t.Error("rerere should not be re-enabled")
	}
	if out != "no trivially resolved paths" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestActionRunner_PreviewMergeConflicts(t *testing.T) {
	argv := []string{"git", "merge-tree", "--write-tree", "--name-only", "--no-messages", "HEAD", "origin/main"}
	spec := action.Spec{
		Kind:   action.KindPreviewMergeConflicts,
		Params: action.PreviewParams{Ours: "HEAD", Theirs: "origin/main"},
	}

	t.Run("exit 1 lists conflicts", func(t *testing.T) {
		runner := newMockRunner().on("", commandError(1, "4b825dc\nsrc/a.go\nsrc/b.go\n\n", argv...), argv...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		out, err := r.Perform(context.Background(), spec)
		requireNoError(t, err)
		if out != "2 paths predicted to conflict: src/a.go, src/b.go" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("clean merge", func(t *testing.T) {
		runner := newMockRunner().on("4b825dc\n", nil, argv...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		out, err := r.Perform(context.Background(), spec)
		requireNoError(t, err)
		if out != "no conflicts predicted" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("other exit codes fail", func(t *testing.T) {
		runner := newMockRunner().on("", commandError(128, "", argv...), argv...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		if _, err := r.Perform(context.Background(), spec); err == nil {
			t.Fatal("expected error for exit 128")
		}
	})

	t.Run("missing params", func(t *testing.T) {
		r := newTestActionRunner(newMockRunner(), models.Config{}, nil, nil)
		_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindPreviewMergeConflicts, Params: action.NoParams{}})
		requireErrorIs(t, err, ErrMissingParams)
	})
}

func TestActionRunner_ApplyPathStrategy(t *testing.T) {
	runner := newMockRunner()
	obs := &mockObserver{states: []models.RepoState{{
		Ref: models.RepoRef{Branch: "feature"},
		Conflicts: []models.ConflictDetail{
			{Path: "go.sum", Type: models.ConflictText, HunkCount: 1},
			{Path: "docs/guide.md", Type: models.ConflictText, HunkCount: 2},
			{Path: "main.go", Type: models.ConflictText, HunkCount: 1},
		},
	}}}
	cfg := models.Config{StrategyRules: []models.StrategyRule{
		{Pattern: "go.sum", Resolution: models.ResolutionTheirs},
		{Pattern: "*.md", Resolution: models.ResolutionManual},
	}}
	r := newTestActionRunner(runner, cfg, nil, obs)

	out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindApplyPathStrategy})
	requireNoError(t, err)

	if !runner.called("git", "checkout", "--theirs", "--", "go.sum") || !runner.called("git", "add", "--", "go.sum") {
		t.Errorf("expected go.sum resolved with theirs, calls: %v", runner.calls)
	}
	if runner.calledPrefix("git checkout --ours") || runner.called("git", "add", "--", "docs/guide.md") {
		t.Error("manual and unmatched paths must be left unresolved")
	}
	if out != "resolved 1, escalated 1, unmatched 1" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestActionRunner_ApplyPathStrategy_WhenGuard(t *testing.T) {
	runner := newMockRunner()
	obs := &mockObserver{states: []models.RepoState{{
		Ref:       models.RepoRef{Branch: "release/1.0"},
		Conflicts: []models.ConflictDetail{{Path: "config.json", Type: models.ConflictJSON, HunkCount: 1}},
	}}}
	cfg := models.Config{StrategyRules: []models.StrategyRule{
		{Pattern: "*.json", Resolution: models.ResolutionOurs, When: `branch startsWith "main"`},
		{Pattern: "*.json", Resolution: models.ResolutionTheirs, When: `ctype == "json" && hunks < 3`},
	}}
	r := newTestActionRunner(runner, cfg, nil, obs)

	_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindApplyPathStrategy})
	requireNoError(t, err)

	if !runner.called("git", "checkout", "--theirs", "--", "config.json") {
		t.Errorf("expected second rule to apply, calls: %v", runner.calls)
	}
}

func TestActionRunner_ApplyPathStrategy_GuardErrorLogged(t *testing.T) {
	runner := newMockRunner()
	obs := &mockObserver{states: []models.RepoState{{
		Conflicts: []models.ConflictDetail{{Path: "config.json", Type: models.ConflictJSON, HunkCount: 1}},
	}}}
	cfg := models.Config{StrategyRules: []models.StrategyRule{
		{Pattern: "*.json", Resolution: models.ResolutionOurs, When: `int(base) > 0`},
		{Pattern: "*.json", Resolution: models.ResolutionTheirs},
	}}
	logger := newRecordingLogger()
	r := NewActionRunner(ActionRunnerDeps{
		Actions:  runner,
		Live:     runner,
		Observer: obs,
		Config:   cfg,
		Logger:   logger,
		Now:      func() time.Time { return fixedNow },
	})

	_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindApplyPathStrategy})
	requireNoError(t, err)

	if !runner.called("git", "checkout", "--theirs", "--", "config.json") {
		t.Errorf("expected fallback rule to apply, calls: %v", runner.calls)
	}
	if !slices.Contains(*logger.entries, "debug strategy rule skipped") {
		t.Errorf("expected a debug entry for the failed guard, got %v", *logger.entries)
	}
}

func TestActionRunner_RebaseOntoUpstream(t *testing.T) {
	runner := newMockRunner()
	r := newTestActionRunner(runner, models.Config{ConflictStyle: "zdiff3"}, nil, nil)

	spec := action.Spec{
		Kind:   action.KindRebaseOntoUpstream,
		Params: action.RebaseOntoParams{Upstream: "origin/main", UpdateRefs: true},
	}
	out, err := r.Perform(context.Background(), spec)
	requireNoError(t, err)

	if !runner.called("git", "-c", "merge.conflictStyle=zdiff3", "rebase", "--update-refs", "origin/main") {
		t.Errorf("unexpected rebase invocation: %v", runner.calls)
	}
	if out != "rebased onto origin/main" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestActionRunner_RebaseContinueOrAbort(t *testing.T) {
	diff := []string{"git", "diff", "--name-only", "--diff-filter=U"}
	lookup := []string{"git", "for-each-ref", "--sort=-creatordate", "--count=1", "--format=%(refname)", effects.BackupRefPrefix}

	t.Run("continues when nothing is unmerged", func(t *testing.T) {
		runner := newMockRunner().on("", nil, diff...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRebaseContinueOrAbort})
		requireNoError(t, err)
		if !runner.called("git", "-c", "core.editor=true", "rebase", "--continue") {
			t.Errorf("expected rebase --continue, calls: %v", runner.calls)
		}
		if out != "rebase continued" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("aborts and restores the pinned backup", func(t *testing.T) {
		runner := newMockRunner().on("a.txt\n", nil, diff...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		spec := action.Spec{
			Kind:   action.KindRebaseContinueOrAbort,
			Params: action.ContinueOrAbortParams{BackupRef: "refs/backup/goap/pinned"},
		}
		_, err := r.Perform(context.Background(), spec)
		requireErrorIs(t, err, ErrRebaseAborted)
		if !runner.called("git", "rebase", "--abort") || !runner.called("git", "reset", "--hard", "refs/backup/goap/pinned") {
			t.Errorf("expected abort then reset to backup, calls: %v", runner.calls)
		}
		if runner.calledPrefix("git for-each-ref") {
			t.Error("pinned backup should not need a lookup")
		}
	})

	t.Run("falls back to the latest backup ref", func(t *testing.T) {
		runner := newMockRunner().
			on("a.txt\nb.txt\n", nil, diff...).
			on("refs/backup/goap/latest\n", nil, lookup...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRebaseContinueOrAbort})
		requireErrorIs(t, err, ErrRebaseAborted)
		if !runner.called("git", "reset", "--hard", "refs/backup/goap/latest") {
			t.Errorf("expected reset to latest backup, calls: %v", runner.calls)
		}
		if !strings.Contains(err.Error(), "2 paths") {
			t.Errorf("expected unresolved count in error, got %v", err)
		}
	})

	t.Run("abort without any backup", func(t *testing.T) {
		runner := newMockRunner().on("a.txt\n", nil, diff...)
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRebaseContinueOrAbort})
		requireErrorIs(t, err, ErrRebaseAborted)
		if runner.calledPrefix("git reset") {
			t.Error("reset must not run without a backup ref")
		}
	})
}

func TestActionRunner_PushWithLease(t *testing.T) {
	params := action.PushParams{Remote: "origin", RemoteBranch: "main", LocalBranch: "feature"}
	tests := []struct {
		name  string
		force bool
		want  []string
	}{
		{"lease", false, []string{"git", "push", "--force-with-lease", "origin", "feature:main"}},
		{"force when allowed", true, []string{"git", "push", "--force", "origin", "feature:main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newMockRunner()
			r := newTestActionRunner(runner, models.Config{AllowForcePush: tt.force}, nil, nil)

			out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindPushWithLease, Params: params})
			requireNoError(t, err)
			if !runner.called(tt.want...) {
				t.Errorf("expected %v, calls: %v", tt.want, runner.calls)
			}
			if out != "pushed feature:main to origin" {
				t.Errorf("unexpected output %q", out)
			}
		})
	}
}

func TestActionRunner_RunTests(t *testing.T) {
	t.Run("no command configured", func(t *testing.T) {
		r := newTestActionRunner(newMockRunner(), models.Config{}, nil, nil)
		_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRunTests, Params: action.TestParams{}})
		requireErrorIs(t, err, ErrMissingParams)
	})

	t.Run("runs configured command", func(t *testing.T) {
		runner := newMockRunner()
		cfg := models.Config{Goal: models.GoalSpec{TestsMustPass: true, TestsCommand: []string{"make", "test"}}}
		r := newTestActionRunner(runner, cfg, nil, nil)

		out, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRunTests, Params: action.TestParams{Timeout: time.Minute}})
		requireNoError(t, err)
		if !runner.called("make", "test") {
			t.Errorf("expected test command, calls: %v", runner.calls)
		}
		if out != "tests passed: make test" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("failure propagates", func(t *testing.T) {
		runner := newMockRunner().on("", commandError(2, "", "make", "test"), "make", "test")
		cfg := models.Config{Goal: models.GoalSpec{TestsMustPass: true, TestsCommand: []string{"make", "test"}}}
		r := newTestActionRunner(runner, cfg, nil, nil)

		if _, err := r.Perform(context.Background(), action.Spec{Kind: action.KindRunTests}); err == nil {
			t.Fatal("expected failing tests to fail the action")
		}
	})
}

func TestActionRunner_ExplainRangeDiff(t *testing.T) {
	spec := action.Spec{Kind: action.KindExplainRangeDiff, Params: action.RangeDiffParams{Tracking: "origin/main"}}

	t.Run("summary is the range-diff output", func(t *testing.T) {
		runner := newMockRunner().
			on("base1\n", nil, "git", "merge-base", "HEAD", "origin/main").
			on("1:  aaa = 1:  bbb change\n", nil, "git", "range-diff", "base1..origin/main", "base1..HEAD")
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		out, err := r.Perform(context.Background(), spec)
		requireNoError(t, err)
		if out != "1:  aaa = 1:  bbb change" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("empty merge base fails", func(t *testing.T) {
		runner := newMockRunner().on("\n", nil, "git", "merge-base", "HEAD", "origin/main")
		r := newTestActionRunner(runner, models.Config{}, nil, nil)

		if _, err := r.Perform(context.Background(), spec); err == nil {
			t.Fatal("expected error for empty merge base")
		}
		if runner.calledPrefix("git range-diff") {
			t.Error("range-diff must not run without a merge base")
		}
	})
}

func TestActionRunner_FetchAll(t *testing.T) {
	runner := newMockRunner()
	r := newTestActionRunner(runner, models.Config{}, nil, nil)

	_, err := r.Perform(context.Background(), action.Spec{Kind: action.KindFetchAll, Params: action.FetchParams{Remote: "upstream"}})
	requireNoError(t, err)
	if !runner.called("git", "fetch", "--prune", "upstream") {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestActionRunner_UnknownKind(t *testing.T) {
	r := newTestActionRunner(newMockRunner(), models.Config{}, nil, nil)
	if _, err := r.Perform(context.Background(), action.Spec{Kind: action.KindUnknown}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
