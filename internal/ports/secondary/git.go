// Package secondary defines the secondary ports (driven adapters) for the application.
package secondary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/goapgit/internal/models"
)

// Sentinel errors for errors.Is checks across the command boundary.
var (
	// ErrCommandFailed matches every *CommandError.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandTimeout matches a *CommandError raised by a deadline.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrEnvironment wraps OS-level failures such as a missing binary or denied permission.
	ErrEnvironment = errors.New("command environment error")
)

// CommandResult is the outcome of a single command invocation.
type CommandResult struct {
	Argv       []string
	Stdout     string
	Stderr     string
	ReturnCode int
	DryRun     bool
}

// CommandRecord is one entry of the append-only command history.
type CommandRecord struct {
	Argv       []string `json:"command"`
	ReturnCode int      `json:"returncode"`
	DryRun     bool     `json:"dry_run"`
}

// CommandError is returned when a command exits nonzero or hits its deadline.
type CommandError struct {
	Argv       []string
	ReturnCode int
	Stdout     string
	Stderr     string
	TimedOut   bool
}

// Error returns stderr verbatim when present.
func (e *CommandError) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.TimedOut {
		return fmt.Sprintf("%s: timed out", cmd)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("%s: exit status %d: %s", cmd, e.ReturnCode, msg)
	}
	return fmt.Sprintf("%s: exit status %d", cmd, e.ReturnCode)
}

// Is matches ErrCommandFailed always and ErrCommandTimeout when timed out.
func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrCommandFailed:
		return true
	case ErrCommandTimeout:
		return e.TimedOut
	}
	return false
}

// CommandRunner executes external commands against one repository.
// In dry-run mode mutating commands are recorded but not executed.
type CommandRunner interface {
	// Run executes argv. Deadlines come from ctx.
	Run(ctx context.Context, argv []string) (*CommandResult, error)

	// DryRun reports whether mutating commands are suppressed.
	DryRun() bool

	// History returns a copy of every invocation attempted so far.
	History() []CommandRecord

	// Dir returns the working directory commands run in.
	Dir() string
}

// RepoObserver derives a fresh RepoState snapshot.
type RepoObserver interface {
	Observe(ctx context.Context) (models.RepoState, error)
}
