// Package testrepos builds throwaway git repositories for integration tests.
package testrepos

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TempRepo is a temporary git work tree.
type TempRepo struct {
	Root string
}

// Require skips the test unless git is installed and at least major.minor.
func Require(tb testing.TB, major, minor int) {
	tb.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		tb.Skip("git not available")
	}
	out, err := runGit("", "version")
	if err != nil {
		tb.Skipf("git version failed: %v", err)
	}
	gotMajor, gotMinor, ok := parseVersion(out)
	if !ok {
		tb.Skipf("cannot parse %q", strings.TrimSpace(out))
	}
	if gotMajor < major || (gotMajor == major && gotMinor < minor) {
		tb.Skipf("git %d.%d or newer required, have %d.%d", major, minor, gotMajor, gotMinor)
	}
}

// New creates a repository on branch main with one commit.
func New(tb testing.TB) *TempRepo {
	tb.Helper()
	Require(tb, 2, 0)
	repo := &TempRepo{Root: tb.TempDir()}
	repo.RunGit(tb, "init", "-q")
	repo.RunGit(tb, "symbolic-ref", "HEAD", "refs/heads/main")
	repo.configure(tb)
	repo.CommitFile(tb, "README.md", "# temp repository\n", "Initial commit")
	return repo
}

// NewWithUpstream creates a bare remote and two clones tracking origin/main.
// work is the clone under maintenance; other publishes competing commits.
func NewWithUpstream(tb testing.TB) (work, other *TempRepo) {
	tb.Helper()
	seed := New(tb)
	bare := filepath.Join(tb.TempDir(), "remote.git")
	if out, err := runGit("", "clone", "-q", "--bare", seed.Root, bare); err != nil {
		tb.Fatalf("create bare remote: %v: %s", err, out)
	}
	return Clone(tb, bare), Clone(tb, bare)
}

// Clone clones url into a fresh temporary directory.
func Clone(tb testing.TB, url string) *TempRepo {
	tb.Helper()
	repo := &TempRepo{Root: tb.TempDir()}
	repo.RunGit(tb, "clone", "-q", url, ".")
	repo.configure(tb)
	return repo
}

// RunGit executes git in the repository and fails the test on error.
func (r *TempRepo) RunGit(tb testing.TB, args ...string) string {
	tb.Helper()
	out, err := runGit(r.Root, args...)
	if err != nil {
		tb.Fatalf("git %s failed: %v: %s", strings.Join(args, " "), err, out)
	}
	return out
}

// TryGit executes git and returns its error, for commands expected to fail.
func (r *TempRepo) TryGit(args ...string) (string, error) {
	return runGit(r.Root, args...)
}

// Head returns the commit HEAD points at.
func (r *TempRepo) Head(tb testing.TB) string {
	tb.Helper()
	return strings.TrimSpace(r.RunGit(tb, "rev-parse", "HEAD"))
}

// WriteFile writes content to a path relative to the root.
func (r *TempRepo) WriteFile(tb testing.TB, rel, content string) {
	tb.Helper()
	p := filepath.Join(r.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		tb.Fatalf("create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", rel, err)
	}
}

// CommitFile writes rel and commits it.
func (r *TempRepo) CommitFile(tb testing.TB, rel, content, msg string) {
	tb.Helper()
	r.WriteFile(tb, rel, content)
	r.RunGit(tb, "add", "--", rel)
	r.RunGit(tb, "commit", "-q", "-m", msg)
}

func (r *TempRepo) configure(tb testing.TB) {
	tb.Helper()
	r.RunGit(tb, "config", "user.name", "goapgit test")
	r.RunGit(tb, "config", "user.email", "test@example.com")
	r.RunGit(tb, "config", "commit.gpgsign", "false")
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_CONFIG_NOSYSTEM=1")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// parseVersion reads "git version 2.43.0" style output.
func parseVersion(out string) (major, minor int, ok bool) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return 0, 0, false
	}
	parts := strings.SplitN(fields[2], ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	var err error
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}
