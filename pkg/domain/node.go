package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// NodeType defines the interaction a node expects.
type NodeType string

const (
	// NodeTypeDecision presents a question with labeled options and halts for a choice.
	NodeTypeDecision NodeType = "decision"
	// NodeTypeInfo presents a statement with at most one continuation.
	NodeTypeInfo NodeType = "info"
)

// ChoiceNo is the only option label that may fall back to a cross-branch link.
const ChoiceNo = "NO"

// OptionMap maps a choice label to a target node id. A nil target is the
// "no outgoing edge" sentinel. Key order is the document order.
type OptionMap = orderedmap.OrderedMap[string, *string]

// clone returns a copy of n that shares no pointers with it.
func (n Node) clone() Node {
	c := n
	if n.Options != nil {
		c.Options = orderedmap.New[string, *string](n.Options.Len())
		for pair := n.Options.Oldest(); pair != nil; pair = pair.Next() {
			c.Options.Set(pair.Key, copyString(pair.Value))
		}
	}
	if n.CrossBranchLink != nil {
		link := *n.CrossBranchLink
		c.CrossBranchLink = &link
	}
	c.Next = copyString(n.Next)
	return c
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Edge is one labeled option of a decision node. An empty Target means the
// option has no outgoing edge.
type Edge struct {
	Label  string
	Target string
}

// NewOptions builds an ordered option map from edges.
func NewOptions(edges ...Edge) *OptionMap {
	om := orderedmap.New[string, *string]()
	for _, e := range edges {
		if e.Target == "" {
			om.Set(e.Label, nil)
			continue
		}
		target := e.Target
		om.Set(e.Label, &target)
	}
	return om
}

// CrossBranchLink redirects a "NO" option without a target into another branch.
type CrossBranchLink struct {
	Label    string `json:"label" yaml:"label"`
	TargetID string `json:"targetId" yaml:"targetId"`
}

// Node represents a unit of the questionnaire.
// Decision nodes use Question/Options/CrossBranchLink, info nodes use Title/Next.
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Phase       int      `json:"phase" yaml:"phase"`
	Type        NodeType `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`

	// Decision variant
	Question        string           `json:"question,omitempty" yaml:"question,omitempty"`
	Options         *OptionMap       `json:"options,omitempty" yaml:"options,omitempty"`
	CrossBranchLink *CrossBranchLink `json:"crossBranchLink,omitempty" yaml:"crossBranchLink,omitempty"`

	// Info variant
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`
	Next  *string `json:"next,omitempty" yaml:"next,omitempty"`
}

// IsDecision reports whether the node is a decision node.
func (n *Node) IsDecision() bool {
	return n.Type == NodeTypeDecision
}

// IsInfo reports whether the node is an info node.
func (n *Node) IsInfo() bool {
	return n.Type == NodeTypeInfo
}

// Edges returns the options of a decision node in document order.
func (n *Node) Edges() []Edge {
	if n.Options == nil {
		return nil
	}
	edges := make([]Edge, 0, n.Options.Len())
	for pair := n.Options.Oldest(); pair != nil; pair = pair.Next() {
		e := Edge{Label: pair.Key}
		if pair.Value != nil {
			e.Target = *pair.Value
		}
		edges = append(edges, e)
	}
	return edges
}

// Labels returns the option labels in document order.
func (n *Node) Labels() []string {
	edges := n.Edges()
	labels := make([]string, len(edges))
	for i, e := range edges {
		labels[i] = e.Label
	}
	return labels
}

// HasOption reports whether label is one of the node's options.
func (n *Node) HasOption(label string) bool {
	if n.Options == nil {
		return false
	}
	_, ok := n.Options.Get(label)
	return ok
}

// Resolve returns the node reached by choosing label. The option target wins;
// a "NO" option without a target falls back to the cross-branch link.
// An empty result means the choice ends the phase.
func (n *Node) Resolve(label string) string {
	if n.Options != nil {
		if target, ok := n.Options.Get(label); ok && target != nil && *target != "" {
			return *target
		}
	}
	if label == ChoiceNo && n.CrossBranchLink != nil {
		return n.CrossBranchLink.TargetID
	}
	return ""
}

// hasOpenNo reports whether the node has a "NO" option without a target,
// the only place a cross-branch link may attach.
func (n *Node) hasOpenNo() bool {
	if n.Options == nil {
		return false
	}
	target, ok := n.Options.Get(ChoiceNo)
	return ok && (target == nil || *target == "")
}

// NextID returns the continuation of an info node, or "" when it is terminal.
func (n *Node) NextID() string {
	if n.Next == nil {
		return ""
	}
	return *n.Next
}

// Heading is the text shown for the node: the question for decisions, the title otherwise.
func (n *Node) Heading() string {
	if n.IsDecision() {
		return n.Question
	}
	return n.Title
}

// NextTo is a convenience for building info nodes.
func NextTo(id string) *string {
	return &id
}
