package domain

import (
	"slices"
	"sort"
)

// Document is the raw tree definition as supplied by a loader.
type Document struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Phases []Phase `json:"phases" yaml:"phases"`
	Nodes  []Node  `json:"nodes" yaml:"nodes"`
}

// Tree is a validated, read-only Document indexed by node id.
type Tree struct {
	title  string
	phases []Phase
	nodes  []*Node
	index  map[string]*Node
}

// NewTree validates doc and builds the lookup index.
// Every violation is reported in a single *ValidationError (matching ErrInvalidTree).
func NewTree(doc Document) (*Tree, error) {
	t := &Tree{
		title: doc.Title,
		index: make(map[string]*Node, len(doc.Nodes)),
	}

	t.phases = make([]Phase, len(doc.Phases))
	for i, p := range doc.Phases {
		p.Options = slices.Clone(p.Options)
		t.phases[i] = p
	}
	sort.SliceStable(t.phases, func(i, j int) bool { return t.phases[i].ID < t.phases[j].ID })

	verr := &ValidationError{}
	for i := range doc.Nodes {
		n := doc.Nodes[i].clone()
		if n.ID == "" {
			verr.Add("node #%d has no id", i)
			continue
		}
		if _, dup := t.index[n.ID]; dup {
			verr.Add("duplicate node id %q", n.ID)
			continue
		}
		t.nodes = append(t.nodes, &n)
		t.index[n.ID] = &n
	}

	t.validatePhases(verr)
	t.validateNodes(verr)

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) validatePhases(verr *ValidationError) {
	if len(t.phases) == 0 {
		verr.Add("tree has no phases")
		return
	}
	for i, p := range t.phases {
		if p.ID != i+1 {
			verr.Add("phase ids must be unique and sequential from 1: position %d has id %d", i+1, p.ID)
		}
		switch p.Type {
		case PhaseTypeMenu:
			if len(p.Options) == 0 {
				verr.Add("menu phase %d has no options", p.ID)
			}
			seen := make(map[string]bool, len(p.Options))
			for _, opt := range p.Options {
				if opt.ID == "" {
					verr.Add("menu phase %d has an option without id", p.ID)
					continue
				}
				if seen[opt.ID] {
					verr.Add("menu phase %d has duplicate option %q", p.ID, opt.ID)
				}
				seen[opt.ID] = true
			}
		case PhaseTypeTree, "":
			if p.StartNode == "" {
				verr.Add("tree phase %d has no startNode", p.ID)
				continue
			}
			start, ok := t.index[p.StartNode]
			if !ok {
				verr.Add("phase %d startNode %q does not exist", p.ID, p.StartNode)
				continue
			}
			if start.Phase != p.ID {
				verr.Add("phase %d startNode %q belongs to phase %d", p.ID, p.StartNode, start.Phase)
			}
		default:
			verr.Add("phase %d has unknown type %q", p.ID, p.Type)
		}
	}
}

func (t *Tree) validateNodes(verr *ValidationError) {
	for _, n := range t.nodes {
		phase, ok := t.Phase(n.Phase)
		if !ok {
			verr.Add("node %q references unknown phase %d", n.ID, n.Phase)
		} else if !phase.IsTree() {
			verr.Add("node %q belongs to menu phase %d", n.ID, n.Phase)
		}

		switch n.Type {
		case NodeTypeDecision:
			if n.Question == "" {
				verr.Add("decision node %q has no question", n.ID)
			}
			if n.Options == nil || n.Options.Len() == 0 {
				verr.Add("decision node %q has no options", n.ID)
			}
			for _, e := range n.Edges() {
				if e.Target != "" {
					t.checkRef(verr, n, e.Target, "option "+e.Label)
				}
			}
			if link := n.CrossBranchLink; link != nil {
				if !n.hasOpenNo() {
					verr.Add("node %q has a crossBranchLink but no %q option without target", n.ID, ChoiceNo)
				}
				if link.TargetID == "" {
					verr.Add("node %q crossBranchLink has no targetId", n.ID)
				} else {
					t.checkRef(verr, n, link.TargetID, "crossBranchLink")
				}
			}
		case NodeTypeInfo:
			if n.Title == "" {
				verr.Add("info node %q has no title", n.ID)
			}
			if n.Options != nil || n.CrossBranchLink != nil {
				verr.Add("info node %q cannot have options", n.ID)
			}
			if next := n.NextID(); next != "" {
				t.checkRef(verr, n, next, "next")
			}
		default:
			verr.Add("node %q has unknown type %q", n.ID, n.Type)
		}
	}
}

// checkRef verifies that target exists and stays inside the referring node's phase.
func (t *Tree) checkRef(verr *ValidationError, from *Node, target, via string) {
	to, ok := t.index[target]
	if !ok {
		verr.Add("node %q %s references missing node %q", from.ID, via, target)
		return
	}
	if to.Phase != from.Phase {
		verr.Add("node %q %s crosses from phase %d to phase %d (%q)", from.ID, via, from.Phase, to.Phase, target)
	}
}

// Title returns the document title, if any.
func (t *Tree) Title() string {
	return t.title
}

// PhaseCount returns the number of phases.
func (t *Tree) PhaseCount() int {
	return len(t.phases)
}

// Phases returns the phases in ascending id order.
func (t *Tree) Phases() []Phase {
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Phase looks up a phase by id.
func (t *Tree) Phase(id int) (Phase, bool) {
	if id < 1 || id > len(t.phases) || t.phases[id-1].ID != id {
		for _, p := range t.phases {
			if p.ID == id {
				return p, true
			}
		}
		return Phase{}, false
	}
	return t.phases[id-1], true
}

// Node looks up a node by id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// NodeInPhase looks up a node by id, only if it belongs to the given phase.
func (t *Tree) NodeInPhase(id string, phaseID int) (*Node, bool) {
	n, ok := t.index[id]
	if !ok || n.Phase != phaseID {
		return nil, false
	}
	return n, true
}

// Nodes returns every node in document order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// PhaseNodes returns the nodes of one phase in document order.
func (t *Tree) PhaseNodes(phaseID int) []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if n.Phase == phaseID {
			out = append(out, n)
		}
	}
	return out
}

// Document rebuilds the source document (phases sorted by id).
func (t *Tree) Document() Document {
	doc := Document{
		Title:  t.title,
		Phases: t.Phases(),
		Nodes:  make([]Node, len(t.nodes)),
	}
	for i, n := range t.nodes {
		doc.Nodes[i] = *n
	}
	return doc
}
