// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"github.com/example/goapgit/internal/core/effects"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor through a command runner.
type DefaultEffectExecutor struct {
	runner secondary.CommandRunner
	logger logging.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(runner secondary.CommandRunner, logger logging.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DefaultEffectExecutor{runner: runner, logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
// The first failure stops the sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.GitEffect:
		return e.executeGit(ctx, typed)
	case effects.CommandEffect:
		return e.executeCommand(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.executeLog(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeGit(ctx context.Context, eff effects.GitEffect) error {
	res, err := e.runner.Run(ctx, eff.Argv())
	if err != nil {
		return err
	}
	e.logger.Debug("git command", "operation", eff.Operation, "dry_run", res.DryRun)
	return nil
}

func (e *DefaultEffectExecutor) executeCommand(ctx context.Context, eff effects.CommandEffect) error {
	if len(eff.Argv) == 0 {
		return fmt.Errorf("%w: empty command", secondary.ErrEnvironment)
	}
	if eff.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eff.Timeout)
		defer cancel()
	}
	_, err := e.runner.Run(ctx, eff.Argv)
	return err
}

func (e *DefaultEffectExecutor) executeLog(eff effects.LogEffect) {
	args := make([]any, 0, 2*len(eff.Fields))
	for k, v := range eff.Fields {
		args = append(args, k, v)
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, args...)
	case "warn":
		e.logger.Warn(eff.Message, args...)
	case "error":
		e.logger.Error(eff.Message, args...)
	default:
		e.logger.Info(eff.Message, args...)
	}
}
