package action

import (
	"testing"

	"github.com/example/goapgit/internal/models"
)

func trackingState() models.RepoState {
	return models.RepoState{
		Ref:              models.RepoRef{Branch: "feature", Tracking: "origin/main", SHA: "abc123"},
		WorkingTreeClean: true,
	}
}

func TestCanSyncWithUpstream(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*models.RepoState)
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can sync when behind upstream",
			mutate:      func(s *models.RepoState) { s.DivergedRemote = 2 },
			wantAllowed: true,
		},
		{
			name: "cannot sync without upstream",
			mutate: func(s *models.RepoState) {
				s.Ref.Tracking = ""
				s.DivergedRemote = 2
			},
			wantReason: "branch feature has no upstream",
		},
		{
			name:       "cannot sync when not behind",
			mutate:     func(s *models.RepoState) {},
			wantReason: "branch is not behind origin/main",
		},
		{
			name: "cannot sync during rebase",
			mutate: func(s *models.RepoState) {
				s.DivergedRemote = 1
				s.OngoingRebase = true
			},
			wantReason: "rebase in progress",
		},
		{
			name: "cannot sync during merge",
			mutate: func(s *models.RepoState) {
				s.DivergedRemote = 1
				s.OngoingMerge = true
			},
			wantReason: "merge in progress",
		},
		{
			name: "cannot sync with conflicts",
			mutate: func(s *models.RepoState) {
				s.DivergedRemote = 1
				s.Conflicts = []models.ConflictDetail{{Path: "a.txt"}}
			},
			wantReason: "1 path(s) still conflicted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := trackingState()
			tt.mutate(&state)
			result := CanSyncWithUpstream(state, models.Config{})
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanPushWithLease(t *testing.T) {
	pushGoal := models.Config{Goal: models.GoalSpec{Mode: models.GoalRebaseToUpstream, PushWithLease: true}}
	pushMode := models.Config{Goal: models.GoalSpec{Mode: models.GoalPushWithLease}}
	noPush := models.Config{Goal: models.GoalSpec{Mode: models.GoalRebaseToUpstream}}

	tests := []struct {
		name        string
		mutate      func(*models.RepoState)
		cfg         models.Config
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can push ahead branch when flag set",
			mutate:      func(s *models.RepoState) { s.DivergedLocal = 1 },
			cfg:         pushGoal,
			wantAllowed: true,
		},
		{
			name:        "can push unpushed commits when mode set",
			mutate:      func(s *models.RepoState) { s.HasUnpushedCommits = true },
			cfg:         pushMode,
			wantAllowed: true,
		},
		{
			name:       "cannot push when goal does not ask",
			mutate:     func(s *models.RepoState) { s.DivergedLocal = 1 },
			cfg:        noPush,
			wantReason: "goal does not request a push",
		},
		{
			name: "cannot push during rebase",
			mutate: func(s *models.RepoState) {
				s.DivergedLocal = 1
				s.OngoingRebase = true
			},
			cfg:        pushGoal,
			wantReason: "rebase in progress",
		},
		{
			name: "cannot push during merge",
			mutate: func(s *models.RepoState) {
				s.DivergedLocal = 1
				s.OngoingMerge = true
			},
			cfg:        pushMode,
			wantReason: "merge in progress",
		},
		{
			name:       "cannot push with nothing to publish",
			mutate:     func(s *models.RepoState) {},
			cfg:        pushGoal,
			wantReason: "no local commits to publish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := trackingState()
			tt.mutate(&state)
			result := CanPushWithLease(state, tt.cfg)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanRunTests(t *testing.T) {
	cfg := models.Config{Goal: models.GoalSpec{TestsMustPass: true, TestsCommand: []string{"make", "test"}}}

	tests := []struct {
		name        string
		mutate      func(*models.RepoState)
		cfg         models.Config
		wantAllowed bool
		wantReason  string
	}{
		{"can run on clean tree", func(*models.RepoState) {}, cfg, true, ""},
		{"not required", func(*models.RepoState) {}, models.Config{}, false, "goal does not require tests"},
		{"dirty tree", func(s *models.RepoState) { s.WorkingTreeClean = false }, cfg, false, "working tree is dirty"},
		{"conflicts", func(s *models.RepoState) {
			s.Conflicts = []models.ConflictDetail{{Path: "a"}, {Path: "b"}}
		}, cfg, false, "2 path(s) still conflicted"},
		{"rebase", func(s *models.RepoState) { s.OngoingRebase = true }, cfg, false, "rebase in progress"},
		{"merge", func(s *models.RepoState) { s.OngoingMerge = true }, cfg, false, "merge in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := trackingState()
			tt.mutate(&state)
			result := CanRunTests(state, tt.cfg)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanExplainRangeDiff(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*models.RepoState)
		wantAllowed bool
	}{
		{"ahead", func(s *models.RepoState) { s.DivergedLocal = 2 }, true},
		{"unpushed only", func(s *models.RepoState) { s.HasUnpushedCommits = true }, true},
		{"nothing local", func(*models.RepoState) {}, false},
		{"no upstream", func(s *models.RepoState) {
			s.DivergedLocal = 2
			s.Ref.Tracking = ""
		}, false},
		{"conflicted", func(s *models.RepoState) {
			s.DivergedLocal = 2
			s.Conflicts = []models.ConflictDetail{{Path: "x"}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := trackingState()
			tt.mutate(&state)
			if got := CanExplainRangeDiff(state, models.Config{}).Allowed; got != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got, tt.wantAllowed)
			}
		})
	}
}

func TestCanContinueOrAbort(t *testing.T) {
	state := trackingState()
	if CanContinueOrAbort(state, models.Config{}).Allowed {
		t.Error("expected refusal without a rebase")
	}
	state.OngoingRebase = true
	if !CanContinueOrAbort(state, models.Config{}).Allowed {
		t.Error("expected rebase in progress to allow continue-or-abort")
	}
}

func TestCanApplyPathStrategy(t *testing.T) {
	if CanApplyPathStrategy(models.RepoState{}, models.Config{}).Allowed {
		t.Error("expected refusal without rules")
	}
	cfg := models.Config{StrategyRules: []models.StrategyRule{{Pattern: "*.lock", Resolution: models.ResolutionTheirs}}}
	if !CanApplyPathStrategy(models.RepoState{}, cfg).Allowed {
		t.Error("expected rules to allow the strategy action")
	}
}
