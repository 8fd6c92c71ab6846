package domain

import (
	"slices"
)

// NodeState is the display state of a node relative to the traversal.
type NodeState string

const (
	NodeStateCurrent NodeState = "current" // awaiting interaction
	NodeStateVisited NodeState = "visited" // on the path, already passed
	NodeStateFuture  NodeState = "future"  // not reached
)

// FlowState is the single mutable entity of the engine.
type FlowState struct {
	// SessionID identifies the traversal when persisted. Optional.
	SessionID string `json:"sessionId,omitempty"`

	// CurrentNodeID is the node awaiting interaction, "" when absent
	// (menu phase or complete).
	CurrentNodeID string `json:"currentNodeId,omitempty"`

	// VisitedPath is the deduplicated walk taken so far, in traversal order.
	VisitedPath []string `json:"visitedPath"`

	// Choices maps decision node id to the chosen label.
	Choices map[string]string `json:"choices"`

	// ChoiceOrder keeps the insertion order of Choices.
	ChoiceOrder []string `json:"choiceOrder,omitempty"`

	// MenuSelections maps menu option id to the answer. Missing means unanswered.
	MenuSelections map[string]bool `json:"menuSelections"`

	CurrentPhase int  `json:"currentPhase"`
	IsComplete   bool `json:"isComplete"`
}

// NewFlowState creates an empty state positioned on phase 1.
func NewFlowState() *FlowState {
	return &FlowState{
		VisitedPath:    []string{},
		Choices:        make(map[string]string),
		MenuSelections: make(map[string]bool),
		CurrentPhase:   1,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *FlowState) Clone() *FlowState {
	if s == nil {
		return nil
	}
	next := *s
	next.VisitedPath = slices.Clone(s.VisitedPath)
	if next.VisitedPath == nil {
		next.VisitedPath = []string{}
	}
	next.ChoiceOrder = slices.Clone(s.ChoiceOrder)
	next.Choices = make(map[string]string, len(s.Choices))
	for k, v := range s.Choices {
		next.Choices[k] = v
	}
	next.MenuSelections = make(map[string]bool, len(s.MenuSelections))
	for k, v := range s.MenuSelections {
		next.MenuSelections[k] = v
	}
	return &next
}

// Normalize fills nil collections, typically after decoding.
func (s *FlowState) Normalize() {
	if s.VisitedPath == nil {
		s.VisitedPath = []string{}
	}
	if s.Choices == nil {
		s.Choices = make(map[string]string)
	}
	if s.MenuSelections == nil {
		s.MenuSelections = make(map[string]bool)
	}
}

// InPath reports whether nodeID has been visited.
func (s *FlowState) InPath(nodeID string) bool {
	return slices.Contains(s.VisitedPath, nodeID)
}

// Visit appends nodeID to the path unless it is already there.
func (s *FlowState) Visit(nodeID string) {
	if !s.InPath(nodeID) {
		s.VisitedPath = append(s.VisitedPath, nodeID)
	}
}

// NodeState reports whether nodeID is current, visited or future.
func (s *FlowState) NodeState(nodeID string) NodeState {
	if nodeID != "" && nodeID == s.CurrentNodeID {
		return NodeStateCurrent
	}
	if s.InPath(nodeID) {
		return NodeStateVisited
	}
	return NodeStateFuture
}

// Choice returns the recorded label for a decision node.
func (s *FlowState) Choice(nodeID string) (string, bool) {
	c, ok := s.Choices[nodeID]
	return c, ok
}

// SetChoice records a label, keeping first-insertion order.
func (s *FlowState) SetChoice(nodeID, label string) {
	if _, ok := s.Choices[nodeID]; !ok {
		s.ChoiceOrder = append(s.ChoiceOrder, nodeID)
	}
	s.Choices[nodeID] = label
}

// TruncateAfter cuts the path right after nodeID and drops choices for nodes
// no longer on it.
func (s *FlowState) TruncateAfter(nodeID string) {
	idx := slices.Index(s.VisitedPath, nodeID)
	if idx < 0 {
		return
	}
	s.VisitedPath = s.VisitedPath[:idx+1]

	kept := make(map[string]bool, len(s.VisitedPath))
	for _, id := range s.VisitedPath {
		kept[id] = true
	}
	for id := range s.Choices {
		if !kept[id] {
			delete(s.Choices, id)
		}
	}
	s.ChoiceOrder = slices.DeleteFunc(s.ChoiceOrder, func(id string) bool {
		return !kept[id]
	})
}

// OrderedChoices returns the answered node ids in insertion order.
// Ids missing from ChoiceOrder (hand-built states) follow, sorted.
func (s *FlowState) OrderedChoices() []string {
	out := make([]string, 0, len(s.Choices))
	seen := make(map[string]bool, len(s.Choices))
	for _, id := range s.ChoiceOrder {
		if _, ok := s.Choices[id]; ok && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range s.Choices {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
