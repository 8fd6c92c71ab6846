package runtime

import (
	"github.com/aretw0/branchwise/pkg/domain"
)

// State returns a deep copy of the current flow state.
func (e *Engine) State() *domain.FlowState {
	return e.state.Clone()
}

// NodeState reports whether nodeID is current, visited or future.
func (e *Engine) NodeState(nodeID string) domain.NodeState {
	return e.state.NodeState(nodeID)
}

// IsOnActivePath reports whether nodeID is part of the visited path.
func (e *Engine) IsOnActivePath(nodeID string) bool {
	return e.state.InPath(nodeID)
}

// CurrentNode returns the node awaiting interaction, if any.
func (e *Engine) CurrentNode() (*domain.Node, bool) {
	if e.state.CurrentNodeID == "" {
		return nil, false
	}
	return e.tree.Node(e.state.CurrentNodeID)
}

// ActivePhase returns the current phase. It reports false once the flow is complete.
func (e *Engine) ActivePhase() (domain.Phase, bool) {
	if e.state.IsComplete {
		return domain.Phase{}, false
	}
	return e.tree.Phase(e.state.CurrentPhase)
}

// IsComplete reports whether every phase has been traversed.
func (e *Engine) IsComplete() bool {
	return e.state.IsComplete
}

// Stage reports the coarse state machine position.
func (e *Engine) Stage() Stage {
	if e.state.IsComplete {
		return StageComplete
	}
	if p, ok := e.tree.Phase(e.state.CurrentPhase); ok && p.IsMenu() {
		return StageMenu
	}
	return StageTree
}

// MenuComplete reports whether the active phase is a menu with every option answered.
func (e *Engine) MenuComplete() bool {
	phase, ok := e.ActivePhase()
	if !ok || !phase.IsMenu() {
		return false
	}
	return menuComplete(phase, e.state)
}

// PhaseComplete reports whether the flow has moved past phaseID.
func (e *Engine) PhaseComplete(phaseID int) bool {
	return e.state.IsComplete || phaseID < e.state.CurrentPhase
}

// Choice returns the recorded label for a decision node.
func (e *Engine) Choice(nodeID string) (string, bool) {
	return e.state.Choice(nodeID)
}

func menuComplete(phase domain.Phase, s *domain.FlowState) bool {
	for _, opt := range phase.Options {
		if _, ok := s.MenuSelections[opt.ID]; !ok {
			return false
		}
	}
	return true
}
