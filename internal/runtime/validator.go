package runtime

import (
	"fmt"

	"github.com/aretw0/branchwise/pkg/domain"
)

// checkState verifies that a persisted state could have been produced by an
// engine running over tree.
func checkState(tree *domain.Tree, s *domain.FlowState) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidState, fmt.Sprintf(format, args...))
	}

	count := tree.PhaseCount()
	if s.CurrentPhase < 1 || s.CurrentPhase > count+1 {
		return invalid("phase %d out of range", s.CurrentPhase)
	}
	beyond := s.CurrentPhase > count
	if s.IsComplete != (beyond && s.CurrentNodeID == "") {
		return invalid("completion flag disagrees with phase %d", s.CurrentPhase)
	}

	seen := make(map[string]bool, len(s.VisitedPath))
	for _, id := range s.VisitedPath {
		if _, ok := tree.Node(id); !ok {
			return invalid("path references unknown node %q", id)
		}
		if seen[id] {
			return invalid("node %q visited twice", id)
		}
		seen[id] = true
	}

	for id, label := range s.Choices {
		node, ok := tree.Node(id)
		if !ok || !node.IsDecision() {
			return invalid("choice recorded for non decision node %q", id)
		}
		if !seen[id] {
			return invalid("choice recorded for unvisited node %q", id)
		}
		if !node.HasOption(label) {
			return invalid("node %q has no option %q", id, label)
		}
	}

	for id := range s.MenuSelections {
		if !menuOptionExists(tree, id) {
			return invalid("unknown menu option %q", id)
		}
	}

	if s.CurrentNodeID != "" {
		node, ok := tree.Node(s.CurrentNodeID)
		if !ok || !seen[s.CurrentNodeID] {
			return invalid("current node %q is not on the path", s.CurrentNodeID)
		}
		if node.Phase != s.CurrentPhase {
			return invalid("current node %q is not in phase %d", s.CurrentNodeID, s.CurrentPhase)
		}
	} else if p, ok := tree.Phase(s.CurrentPhase); ok && p.IsTree() {
		return invalid("tree phase %d has no current node", s.CurrentPhase)
	}

	if len(s.VisitedPath) > 0 && !isStartNode(tree, s.VisitedPath[0]) {
		return invalid("path does not begin at a phase start node")
	}
	for i := 0; i+1 < len(s.VisitedPath); i++ {
		from, to := s.VisitedPath[i], s.VisitedPath[i+1]
		if !connected(tree, s, from, to) {
			return invalid("no edge from %q to %q", from, to)
		}
	}
	return nil
}

// connected reports whether to follows from along the recorded choices, or
// starts a later phase. A phase may be skipped without answering its current
// node, so a later start node is accepted whatever from resolved to.
func connected(tree *domain.Tree, s *domain.FlowState, from, to string) bool {
	a, _ := tree.Node(from)
	b, _ := tree.Node(to)
	if b.Phase > a.Phase && isStartNode(tree, to) {
		return true
	}

	var next string
	if a.IsInfo() {
		next = a.NextID()
	} else {
		label, ok := s.Choices[from]
		if !ok {
			return false
		}
		next = a.Resolve(label)
	}
	return next != "" && next == to
}

func isStartNode(tree *domain.Tree, id string) bool {
	for _, p := range tree.Phases() {
		if p.IsTree() && p.StartNode == id {
			return true
		}
	}
	return false
}

func menuOptionExists(tree *domain.Tree, optionID string) bool {
	for _, p := range tree.Phases() {
		if p.IsMenu() && p.HasOption(optionID) {
			return true
		}
	}
	return false
}
