package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
)

var (
	// ErrRebaseAborted reports a rebase that could not continue and was rolled back.
	ErrRebaseAborted = errors.New("rebase aborted")

	// ErrMissingParams reports an action spec lacking the parameters its effector needs.
	ErrMissingParams = errors.New("missing action parameters")
)

// ActionPerformer executes one planned action.
type ActionPerformer interface {
	// Perform runs the effector for spec and returns a human-readable summary.
	Perform(ctx context.Context, spec action.Spec) (string, error)
}

// ActionRunner dispatches action kinds to their effectors.
// Mutations go through the action runner (dry-run aware); predictions and
// summaries that must see real output use the live observer runner.
type ActionRunner struct {
	actions  secondary.CommandRunner
	live     secondary.CommandRunner
	observer secondary.RepoObserver
	effects  EffectExecutor
	cfg      models.Config
	logger   logging.Logger
	now      func() time.Time
	readFile func(string) ([]byte, error)

	// backupRef is the ref written by the last backup action of this run.
	backupRef string
}

// ActionRunnerDeps groups the collaborators of an ActionRunner.
type ActionRunnerDeps struct {
	Actions  secondary.CommandRunner // dry-run or live
	Live     secondary.CommandRunner // always live
	Observer secondary.RepoObserver
	Config   models.Config
	Logger   logging.Logger
	Now      func() time.Time
	ReadFile func(string) ([]byte, error)
}

// NewActionRunner creates an ActionRunner.
func NewActionRunner(deps ActionRunnerDeps) *ActionRunner {
	r := &ActionRunner{
		actions:  deps.Actions,
		live:     deps.Live,
		observer: deps.Observer,
		cfg:      deps.Config,
		logger:   deps.Logger,
		now:      deps.Now,
		readFile: deps.ReadFile,
	}
	if r.live == nil {
		r.live = r.actions
	}
	if r.logger == nil {
		r.logger = logging.Nop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.readFile == nil {
		r.readFile = os.ReadFile
	}
	r.effects = NewEffectExecutor(r.actions, r.logger)
	return r
}

// BackupRef returns the backup ref created during this run, if any.
func (r *ActionRunner) BackupRef() string { return r.backupRef }

// Perform runs the effector for spec.
func (r *ActionRunner) Perform(ctx context.Context, spec action.Spec) (string, error) {
	switch spec.Kind {
	case action.KindCreateBackupRef:
		return r.createBackupRef(ctx)
	case action.KindEnsureCleanOrStash:
		return r.ensureCleanOrStash(ctx)
	case action.KindAutoTrivialResolve:
		return r.autoTrivialResolve(ctx)
	case action.KindPreviewMergeConflicts:
		return r.previewMergeConflicts(ctx, spec.Params)
	case action.KindApplyPathStrategy:
		return r.applyPathStrategy(ctx)
	case action.KindFetchAll:
		return r.fetchAll(ctx, spec.Params)
	case action.KindRebaseOntoUpstream:
		return r.rebaseOntoUpstream(ctx, spec.Params)
	case action.KindRebaseContinueOrAbort:
		return r.rebaseContinueOrAbort(ctx, spec.Params)
	case action.KindPushWithLease:
		return r.pushWithLease(ctx, spec.Params)
	case action.KindRunTests:
		return r.runTests(ctx, spec.Params)
	case action.KindExplainRangeDiff:
		return r.explainRangeDiff(ctx, spec.Params)
	default:
		return "", fmt.Errorf("unknown action kind: %s", spec.Kind)
	}
}

func (r *ActionRunner) apply(ctx context.Context, effs ...effects.Effect) error {
	return r.effects.Execute(ctx, effs)
}

// gitOutput runs a git command on runner and returns trimmed stdout.
func gitOutput(ctx context.Context, runner secondary.CommandRunner, args ...string) (string, error) {
	out, err := gitRaw(ctx, runner, args...)
	return strings.TrimSpace(out), err
}

// gitRaw is gitOutput without trimming, for NUL-separated output.
func gitRaw(ctx context.Context, runner secondary.CommandRunner, args ...string) (string, error) {
	res, err := runner.Run(ctx, append([]string{"git"}, args...))
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Ensure ActionRunner implements the interface
var _ ActionPerformer = (*ActionRunner)(nil)
