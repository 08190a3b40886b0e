package app

import (
	"context"
	"fmt"

	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/core/effects"
)

func (r *ActionRunner) fetchAll(ctx context.Context, params action.Params) (string, error) {
	remote := action.DefaultRemote
	if p, ok := params.(action.FetchParams); ok && p.Remote != "" {
		remote = p.Remote
	}
	if err := r.apply(ctx, effects.Fetch(remote)); err != nil {
		return "", err
	}
	return "fetched " + remote, nil
}

// pushWithLease publishes the branch. Force replaces the lease only when configured.
func (r *ActionRunner) pushWithLease(ctx context.Context, params action.Params) (string, error) {
	p, ok := params.(action.PushParams)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingParams, action.KindPushWithLease)
	}
	if p.Remote == "" {
		p.Remote = action.DefaultRemote
	}
	if r.cfg.AllowForcePush {
		r.logger.Warn("force push enabled; lease protection disabled", "remote", p.Remote)
	}
	if err := r.apply(ctx, effects.Push(p.Remote, p.Refspec(), r.cfg.AllowForcePush)); err != nil {
		return "", err
	}
	if spec := p.Refspec(); spec != "" {
		return fmt.Sprintf("pushed %s to %s", spec, p.Remote), nil
	}
	return "pushed to " + p.Remote, nil
}
