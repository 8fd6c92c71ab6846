package dsl

import "github.com/aretw0/branchwise/pkg/domain"

// PhaseBuilder configures one phase.
type PhaseBuilder struct {
	phase   domain.Phase
	builder *Builder
}

// ID returns the phase id.
func (p *PhaseBuilder) ID() int {
	return p.phase.ID
}

// Start sets the first node of a tree phase.
func (p *PhaseBuilder) Start(nodeID string) *PhaseBuilder {
	p.phase.StartNode = nodeID
	return p
}

// Option adds a yes/no option to a menu phase.
func (p *PhaseBuilder) Option(id, question string) *PhaseBuilder {
	p.phase.Options = append(p.phase.Options, domain.MenuOption{ID: id, Question: question})
	return p
}

// Decision adds a decision node to the phase. The first node added to a
// tree phase without a start becomes its start.
func (p *PhaseBuilder) Decision(id, question string) *NodeBuilder {
	p.defaultStart(id)
	nb := p.builder.node(id, p.phase.ID, domain.NodeTypeDecision)
	nb.node.Question = question
	return nb
}

// Info adds an info node to the phase.
func (p *PhaseBuilder) Info(id, title string) *NodeBuilder {
	p.defaultStart(id)
	nb := p.builder.node(id, p.phase.ID, domain.NodeTypeInfo)
	nb.node.Title = title
	return nb
}

func (p *PhaseBuilder) defaultStart(id string) {
	if p.phase.StartNode == "" && p.phase.IsTree() {
		p.phase.StartNode = id
	}
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node  domain.Node
	edges []domain.Edge
}

// Describe sets the free text shown under the question or title.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Description = text
	return n
}

// Option adds a labeled option. An empty target ends the branch.
func (n *NodeBuilder) Option(label, target string) *NodeBuilder {
	n.edges = append(n.edges, domain.Edge{Label: label, Target: target})
	return n
}

// Yes is Option("YES", target).
func (n *NodeBuilder) Yes(target string) *NodeBuilder {
	return n.Option("YES", target)
}

// No is Option("NO", target).
func (n *NodeBuilder) No(target string) *NodeBuilder {
	return n.Option(domain.ChoiceNo, target)
}

// CrossLink redirects an open NO option into another branch.
func (n *NodeBuilder) CrossLink(label, target string) *NodeBuilder {
	n.node.CrossBranchLink = &domain.CrossBranchLink{Label: label, TargetID: target}
	return n
}

// Then sets the continuation of an info node.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.node.Next = domain.NextTo(target)
	return n
}

// Terminal marks an info node as the end of its phase.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Next = nil
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	node := n.node
	if node.IsDecision() {
		node.Options = domain.NewOptions(n.edges...)
	}
	return node
}
