package action

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/example/goapgit/internal/models"
)

func names(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name()
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

func TestDefault_OrderAndCosts(t *testing.T) {
	want := []struct {
		kind Kind
		cost float64
	}{
		{KindCreateBackupRef, 0.4},
		{KindEnsureCleanOrStash, 0.6},
		{KindAutoTrivialResolve, 0.8},
		{KindPreviewMergeConflicts, 0.9},
		{KindApplyPathStrategy, 1.2},
		{KindFetchAll, 1.1},
		{KindRebaseOntoUpstream, 1.0},
		{KindRebaseContinueOrAbort, 1.5},
		{KindPushWithLease, 1.6},
		{KindRunTests, 1.2},
		{KindExplainRangeDiff, 1.3},
	}

	cat := Default()
	kinds := cat.Kinds()
	if len(kinds) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(kinds))
	}
	for i, w := range want {
		if kinds[i] != w.kind {
			t.Errorf("position %d: got %s, want %s", i, kinds[i], w.kind)
		}
		if cat.Priority(w.kind) != i {
			t.Errorf("Priority(%s) = %d, want %d", w.kind, cat.Priority(w.kind), i)
		}
		spec := cat.entries[i].spec(models.RepoState{}, models.Config{})
		if spec.Cost != w.cost {
			t.Errorf("%s cost = %v, want %v", w.kind, spec.Cost, w.cost)
		}
	}
}

func TestSpecs_BehindCleanBranch(t *testing.T) {
	state := trackingState()
	state.DivergedRemote = 3
	state.DivergedLocal = 1
	state.HasUnpushedCommits = true

	got := names(Default().Specs(state, models.Config{Goal: models.GoalSpec{Mode: models.GoalRebaseToUpstream}}))

	preview := indexOf(got, "Conflict:PreviewMergeConflicts")
	fetch := indexOf(got, "Sync:FetchAll")
	rebase := indexOf(got, "Rebase:OntoUpstream")
	if preview < 0 || fetch < 0 || rebase < 0 {
		t.Fatalf("expected preview, fetch and rebase in %v", got)
	}
	if !(preview < fetch && fetch < rebase) {
		t.Errorf("expected preview < fetch < rebase, got %v", got)
	}
	if indexOf(got, "Sync:PushWithLease") >= 0 {
		t.Errorf("push should not be offered without a push goal: %v", got)
	}
}

func TestSpecs_AheadWithUnpushedCommits(t *testing.T) {
	state := trackingState()
	state.DivergedLocal = 2
	state.HasUnpushedCommits = true

	specs := Default().Specs(state, models.Config{})
	got := names(specs)
	i := indexOf(got, "Quality:ExplainRangeDiff")
	if i < 0 {
		t.Fatalf("expected range-diff explanation in %v", got)
	}
	params, ok := specs[i].Params.(RangeDiffParams)
	if !ok || params.Tracking != "origin/main" {
		t.Errorf("unexpected params %#v", specs[i].Params)
	}
}

func TestSpecs_TypedParams(t *testing.T) {
	state := trackingState()
	state.Ref.Tracking = "upstream/release/1.0"
	state.DivergedRemote = 1
	state.DivergedLocal = 1
	cfg := models.Config{
		Goal:              models.GoalSpec{Mode: models.GoalResolveOnly, PushWithLease: true, TestsMustPass: true},
		MaxTestRuntimeSec: 90,
	}

	byKind := map[Kind]Spec{}
	for _, s := range Default().Specs(state, cfg) {
		byKind[s.Kind] = s
	}

	if p := byKind[KindFetchAll].Params.(FetchParams); p.Remote != "upstream" {
		t.Errorf("fetch remote = %q, want upstream", p.Remote)
	}
	rebase := byKind[KindRebaseOntoUpstream].Params.(RebaseOntoParams)
	if rebase.Upstream != "upstream/release/1.0" || rebase.UpdateRefs {
		t.Errorf("unexpected rebase params %#v", rebase)
	}
	push := byKind[KindPushWithLease].Params.(PushParams)
	if push.Remote != "upstream" || push.RemoteBranch != "release/1.0" || push.LocalBranch != "feature" {
		t.Errorf("unexpected push params %#v", push)
	}
	if push.Refspec() != "feature:release/1.0" {
		t.Errorf("Refspec() = %q", push.Refspec())
	}
	if tp := byKind[KindRunTests].Params.(TestParams); tp.Timeout != 90*time.Second {
		t.Errorf("test timeout = %v", tp.Timeout)
	}
}

func TestSpecs_TestTimeoutBounded(t *testing.T) {
	state := trackingState()
	tests := []struct {
		sec  int
		want time.Duration
	}{
		{0, 0},
		{-5, 0},
		{models.MaxTestRuntimeSec, 24 * time.Hour},
		{models.MaxTestRuntimeSec * 1000, 24 * time.Hour},
	}
	for _, tt := range tests {
		cfg := models.Config{
			Goal:              models.GoalSpec{Mode: models.GoalRebaseToUpstream, TestsMustPass: true, TestsCommand: []string{"make", "test"}},
			MaxTestRuntimeSec: tt.sec,
		}
		found := false
		for _, s := range Default().Specs(state, cfg) {
			if s.Kind != KindRunTests {
				continue
			}
			found = true
			if got := s.Params.(TestParams).Timeout; got != tt.want {
				t.Errorf("max_test_runtime_sec=%d: timeout = %v, want %v", tt.sec, got, tt.want)
			}
		}
		if !found {
			t.Fatalf("max_test_runtime_sec=%d: no test action offered", tt.sec)
		}
	}
}

func TestKind_Repeatable(t *testing.T) {
	for _, k := range Default().Kinds() {
		want := k.Category() == CategoryConflict && k != KindPreviewMergeConflicts || k == KindRebaseContinueOrAbort
		if got := k.Repeatable(); got != want {
			t.Errorf("%s.Repeatable() = %v, want %v", k, got, want)
		}
	}
}

func TestSpecs_RebaseInProgress(t *testing.T) {
	state := trackingState()
	state.OngoingRebase = true
	state.DivergedRemote = 2
	state.DivergedLocal = 2
	cfg := models.Config{Goal: models.GoalSpec{Mode: models.GoalPushWithLease, TestsMustPass: true}}

	got := names(Default().Specs(state, cfg))
	for _, banned := range []string{"Sync:PushWithLease", "Quality:RunTests", "Rebase:OntoUpstream", "Sync:FetchAll"} {
		if indexOf(got, banned) >= 0 {
			t.Errorf("%s must not be offered during a rebase: %v", banned, got)
		}
	}
	if indexOf(got, "Rebase:ContinueOrAbort") < 0 {
		t.Errorf("expected continue-or-abort in %v", got)
	}
}

func TestSpecsExcluding(t *testing.T) {
	skip := map[Kind]bool{KindCreateBackupRef: true, KindAutoTrivialResolve: true}
	got := names(Default().SpecsExcluding(trackingState(), models.Config{}, skip))
	want := []string{"Safety:EnsureCleanOrStash"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPrecondition(t *testing.T) {
	cat := Default()
	state := trackingState()

	if _, ok := cat.Precondition(KindRebaseContinueOrAbort)(state, models.Config{}); ok {
		t.Error("expected continue-or-abort to be inapplicable")
	}
	spec, ok := cat.Precondition(KindCreateBackupRef)(state, models.Config{})
	if !ok || spec.Kind != KindCreateBackupRef {
		t.Errorf("expected backup spec, got %+v %v", spec, ok)
	}
	if _, ok := cat.Precondition(KindUnknown)(state, models.Config{}); ok {
		t.Error("unknown kind must never apply")
	}
}

func TestExplain(t *testing.T) {
	cat := Default()
	for _, k := range cat.Kinds() {
		exp, ok := cat.Explain(k)
		if !ok || exp.Reason == "" || len(exp.Alternatives) == 0 {
			t.Errorf("%s: missing explanation", k)
		}
	}
	exp, _ := cat.Explain(KindCreateBackupRef)
	exp.Alternatives[0] = "changed"
	again, _ := cat.Explain(KindCreateBackupRef)
	if again.Alternatives[0] == "changed" {
		t.Error("Explain must return a copy of the alternatives")
	}
}

func TestSplitTracking(t *testing.T) {
	tests := []struct {
		tracking   string
		wantRemote string
		wantBranch string
	}{
		{"origin/main", "origin", "main"},
		{"upstream/feature/x", "upstream", "feature/x"},
		{"main", "origin", "main"},
		{"/main", "origin", "main"},
		{"origin/", "origin", "origin/"},
	}

	for _, tt := range tests {
		t.Run(tt.tracking, func(t *testing.T) {
			remote, branch := SplitTracking(tt.tracking)
			if remote != tt.wantRemote || branch != tt.wantBranch {
				t.Errorf("SplitTracking(%q) = (%q, %q), want (%q, %q)",
					tt.tracking, remote, branch, tt.wantRemote, tt.wantBranch)
			}
		})
	}
}

func TestKind_NamesRoundTrip(t *testing.T) {
	for _, k := range Default().Kinds() {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if KindPushWithLease.Category() != CategorySync {
		t.Errorf("Category() = %q", KindPushWithLease.Category())
	}
	if _, ok := ParseKind("Nope:Nothing"); ok {
		t.Error("unexpected parse of unknown name")
	}
}

func TestSpec_MarshalJSON(t *testing.T) {
	spec := Spec{
		Kind:      KindFetchAll,
		Cost:      1.1,
		Rationale: "fetch",
		Params:    FetchParams{Remote: "origin"},
	}
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["name"] != "Sync:FetchAll" {
		t.Errorf("name = %v", decoded["name"])
	}
	params := decoded["params"].(map[string]any)
	if params["remote"] != "origin" {
		t.Errorf("params = %v", params)
	}
}
