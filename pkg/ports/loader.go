package ports

import (
	"context"

	"github.com/aretw0/branchwise/pkg/domain"
)

// TreeLoader defines how the flow obtains its tree.
// Implementations return a validated tree or an error matching domain.ErrInvalidTree.
type TreeLoader interface {
	Load(ctx context.Context) (*domain.Tree, error)
}

// TreeLoaderFunc adapts a function to TreeLoader.
type TreeLoaderFunc func(ctx context.Context) (*domain.Tree, error)

// Load calls f.
func (f TreeLoaderFunc) Load(ctx context.Context) (*domain.Tree, error) {
	return f(ctx)
}
