package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/goapgit/internal/adapters/gitexec"
	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.CommandRunner = (*mockRunner)(nil)
	_ secondary.RepoObserver  = (*mockObserver)(nil)
	_ ActionPerformer         = (*mockPerformer)(nil)
)

// mockRunner implements secondary.CommandRunner with canned responses keyed by argv.
// Unknown commands succeed with empty output.
type mockRunner struct {
	dir       string
	dryRun    bool
	responses map[string]mockResponse
	calls     [][]string
}

type mockResponse struct {
	stdout string
	err    error
}

func newMockRunner() *mockRunner {
	return &mockRunner{dir: "/repo", responses: make(map[string]mockResponse)}
}

func (m *mockRunner) on(stdout string, err error, argv ...string) *mockRunner {
	m.responses[strings.Join(argv, " ")] = mockResponse{stdout: stdout, err: err}
	return m
}

func (m *mockRunner) Run(ctx context.Context, argv []string) (*secondary.CommandResult, error) {
	m.calls = append(m.calls, append([]string(nil), argv...))
	if resp, ok := m.responses[strings.Join(argv, " ")]; ok {
		if resp.err != nil {
			return nil, resp.err
		}
		return &secondary.CommandResult{Argv: argv, Stdout: resp.stdout}, nil
	}
	return &secondary.CommandResult{Argv: argv, DryRun: m.dryRun}, nil
}

func (m *mockRunner) DryRun() bool { return m.dryRun }
func (m *mockRunner) Dir() string  { return m.dir }

func (m *mockRunner) History() []secondary.CommandRecord {
	out := make([]secondary.CommandRecord, len(m.calls))
	for i, c := range m.calls {
		out[i] = secondary.CommandRecord{Argv: c, DryRun: m.dryRun}
	}
	return out
}

// called reports whether argv was run verbatim.
func (m *mockRunner) called(argv ...string) bool {
	want := strings.Join(argv, " ")
	for _, c := range m.calls {
		if strings.Join(c, " ") == want {
			return true
		}
	}
	return false
}

// calledPrefix reports whether any call starts with prefix.
func (m *mockRunner) calledPrefix(prefix string) bool {
	for _, c := range m.calls {
		if strings.HasPrefix(strings.Join(c, " "), prefix) {
			return true
		}
	}
	return false
}

// mockObserver returns states in order, repeating the last one.
type mockObserver struct {
	states []models.RepoState
	err    error
	calls  int
}

func (m *mockObserver) Observe(ctx context.Context) (models.RepoState, error) {
	m.calls++
	if m.err != nil {
		return models.RepoState{}, m.err
	}
	if len(m.states) == 0 {
		return models.RepoState{}, nil
	}
	i := m.calls - 1
	if i >= len(m.states) {
		i = len(m.states) - 1
	}
	return m.states[i], nil
}

// mockPerformer fails the kinds listed in failures and records what it ran.
type mockPerformer struct {
	failures  map[action.Kind]error
	failAll   error
	performed []action.Kind
}

func (m *mockPerformer) Perform(ctx context.Context, spec action.Spec) (string, error) {
	m.performed = append(m.performed, spec.Kind)
	if m.failAll != nil {
		return "", m.failAll
	}
	if err := m.failures[spec.Kind]; err != nil {
		return "", err
	}
	return "ok " + spec.Name(), nil
}

func commandError(code int, stdout string, argv ...string) error {
	return &secondary.CommandError{Argv: argv, ReturnCode: code, Stdout: stdout}
}

// fileReader serves file contents by base name.
func fileReader(files map[string]string) func(string) ([]byte, error) {
	return func(p string) ([]byte, error) {
		content, ok := files[filepath.Base(p)]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(content), nil
	}
}

func execRunners(dir string, dryRun bool) secondary.CommandRunner {
	if dryRun {
		return gitexec.NewDryRunner(dir)
	}
	return gitexec.NewRunner(dir)
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func requireErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching %v, got %v", target, err)
	}
}
