// Package gitexec implements the command runner port on top of os/exec.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/example/goapgit/internal/ports/secondary"
)

// killGrace bounds how long Wait keeps reading output after the process group is killed.
const killGrace = 2 * time.Second

// Runner executes commands in a repository directory.
// A dry-run Runner records mutating commands without executing them;
// read-only git commands always execute so observation stays accurate.
type Runner struct {
	dir    string
	dryRun bool

	mu      sync.Mutex
	history []secondary.CommandRecord
}

// NewRunner creates a live Runner rooted at dir.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// NewDryRunner creates a Runner that never executes mutating commands.
func NewDryRunner(dir string) *Runner {
	return &Runner{dir: dir, dryRun: true}
}

// Dir returns the working directory commands run in.
func (r *Runner) Dir() string { return r.dir }

// DryRun reports whether mutating commands are suppressed.
func (r *Runner) DryRun() bool { return r.dryRun }

// History returns a copy of every invocation attempted so far.
func (r *Runner) History() []secondary.CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]secondary.CommandRecord, len(r.history))
	for i, rec := range r.history {
		out[i] = secondary.CommandRecord{
			Argv:       append([]string(nil), rec.Argv...),
			ReturnCode: rec.ReturnCode,
			DryRun:     rec.DryRun,
		}
	}
	return out
}

// Run executes argv, or records it when the runner is dry and argv mutates.
func (r *Runner) Run(ctx context.Context, argv []string) (*secondary.CommandResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", secondary.ErrEnvironment)
	}
	argv = append([]string(nil), argv...)

	if r.dryRun && !IsReadOnly(argv) {
		r.record(argv, 0, true)
		return &secondary.CommandResult{Argv: argv, DryRun: true}, nil
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if strings.TrimSpace(r.dir) != "" {
		cmd.Dir = r.dir
	}
	// Test commands fork; the deadline must take their children down too.
	killProcessGroup(cmd)
	cmd.WaitDelay = killGrace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &secondary.CommandResult{
		Argv:   argv,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		r.record(argv, 0, false)
		return result, nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		r.record(argv, -1, false)
		return nil, &secondary.CommandError{
			Argv:       argv,
			ReturnCode: -1,
			Stdout:     result.Stdout,
			Stderr:     result.Stderr,
			TimedOut:   true,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		r.record(argv, code, false)
		return nil, &secondary.CommandError{
			Argv:       argv,
			ReturnCode: code,
			Stdout:     result.Stdout,
			Stderr:     result.Stderr,
		}
	}

	// Missing binary, permission denied, cancelled context.
	r.record(argv, -1, false)
	return nil, fmt.Errorf("%w: %s: %v", secondary.ErrEnvironment, argv[0], err)
}

func (r *Runner) record(argv []string, code int, dry bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, secondary.CommandRecord{Argv: argv, ReturnCode: code, DryRun: dry})
}

// Ensure Runner implements the interface
var _ secondary.CommandRunner = (*Runner)(nil)
