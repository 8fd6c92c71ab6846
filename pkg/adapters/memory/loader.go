package memory

import (
	"context"

	"github.com/aretw0/branchwise/pkg/domain"
)

// Loader implements ports.TreeLoader over an in-memory document.
type Loader struct {
	doc domain.Document
}

// NewLoader creates a loader that validates doc on every Load.
func NewLoader(doc domain.Document) *Loader {
	return &Loader{doc: doc}
}

// NewFromNodes builds a loader from phases and nodes, for tests and embedding.
func NewFromNodes(phases []domain.Phase, nodes ...domain.Node) *Loader {
	return &Loader{doc: domain.Document{Phases: phases, Nodes: nodes}}
}

// Load validates the document.
func (l *Loader) Load(ctx context.Context) (*domain.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.NewTree(l.doc)
}
