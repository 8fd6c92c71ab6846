package main

import (
	"context"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/observability"
	"github.com/aretw0/branchwise/pkg/session"
)

// openEngine loads the tree and opens the configured store. Transition logs
// are always attached; extra hooks run after them. The caller closes the backend.
func openEngine(ctx context.Context, args []string, hooks ...domain.LifecycleHooks) (*branchwise.Engine, *backend, error) {
	source, err := treeSource(args)
	if err != nil {
		return nil, nil, err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []branchwise.Option{
		branchwise.WithStore(be.store),
		branchwise.WithLogger(logger),
		branchwise.WithLifecycleHooks(domain.MergeHooks(append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)...)),
	}
	if be.locker != nil {
		opts = append(opts, branchwise.WithSessionOptions(session.WithLocker(be.locker)))
	}

	eng, err := branchwise.NewContext(ctx, source, opts...)
	if err != nil {
		_ = be.close()
		return nil, nil, err
	}
	return eng, be, nil
}
