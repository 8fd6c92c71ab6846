package dsl

import (
	"fmt"

	"github.com/aretw0/branchwise/pkg/adapters/memory"
	"github.com/aretw0/branchwise/pkg/domain"
)

// Builder manages the tree construction.
type Builder struct {
	title  string
	phases []*PhaseBuilder
	nodes  []*NodeBuilder
	index  map[string]*NodeBuilder
}

// New creates a new tree builder.
func New(title string) *Builder {
	return &Builder{
		title: title,
		index: make(map[string]*NodeBuilder),
	}
}

// TreePhase appends a tree phase. Phase ids follow the call order.
func (b *Builder) TreePhase(title string) *PhaseBuilder {
	return b.addPhase(title, domain.PhaseTypeTree)
}

// MenuPhase appends a menu phase.
func (b *Builder) MenuPhase(title string) *PhaseBuilder {
	return b.addPhase(title, domain.PhaseTypeMenu)
}

func (b *Builder) addPhase(title string, typ domain.PhaseType) *PhaseBuilder {
	pb := &PhaseBuilder{
		phase:   domain.Phase{ID: len(b.phases) + 1, Title: title, Type: typ},
		builder: b,
	}
	b.phases = append(b.phases, pb)
	return pb
}

// node returns the builder of id, creating it in phase on first use.
func (b *Builder) node(id string, phase int, typ domain.NodeType) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		return nb
	}
	nb := &NodeBuilder{node: domain.Node{ID: id, Phase: phase, Type: typ}}
	b.index[id] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Document assembles the document without validating it.
func (b *Builder) Document() domain.Document {
	doc := domain.Document{Title: b.title}
	for _, pb := range b.phases {
		doc.Phases = append(doc.Phases, pb.phase)
	}
	for _, nb := range b.nodes {
		doc.Nodes = append(doc.Nodes, nb.Build())
	}
	return doc
}

// Tree validates the document and returns the tree.
func (b *Builder) Tree() (*domain.Tree, error) {
	return domain.NewTree(b.Document())
}

// Build validates the document and wraps it in a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	doc := b.Document()
	if _, err := domain.NewTree(doc); err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(doc), nil
}
