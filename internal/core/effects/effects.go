// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import (
	"strings"
	"time"
)

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn", "error"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// GitEffect represents a git invocation against the repository.
type GitEffect struct {
	Operation string   // e.g., "update_ref", "stash_push", "add", "push"
	Args      []string // Arguments after "git"
}

func (e GitEffect) EffectType() string { return "git" }

// Argv returns the full command line.
func (e GitEffect) Argv() []string {
	return append([]string{"git"}, e.Args...)
}

// String renders the command for logs.
func (e GitEffect) String() string {
	return strings.Join(e.Argv(), " ")
}

// CommandEffect represents an arbitrary command, such as the test suite.
type CommandEffect struct {
	Argv    []string
	Timeout time.Duration // zero means no deadline
}

func (e CommandEffect) EffectType() string { return "command" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
