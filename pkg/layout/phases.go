package layout

import (
	"github.com/aretw0/branchwise/pkg/domain"
)

// MenuItem is a menu option as displayed.
type MenuItem struct {
	Option   domain.MenuOption `json:"option"`
	Answered bool              `json:"answered"`
	Value    bool              `json:"value"`
}

// PhaseView is the display of one phase.
type PhaseView struct {
	Phase     domain.Phase `json:"phase"`
	Current   bool         `json:"current"`
	Completed bool         `json:"completed"`

	// Tree phases
	Rows     []Row `json:"rows,omitempty"`
	Terminal bool  `json:"terminal,omitempty"`

	// Menu phases
	Menu        []MenuItem `json:"menu,omitempty"`
	CanContinue bool       `json:"canContinue,omitempty"`
}

// BuildPhases returns the phases worth displaying, in order: tree phases with
// at least one visited node, and menu phases that are current or completed.
// An open menu reveals its answered options plus the next unanswered one.
func BuildPhases(tree *domain.Tree, state *domain.FlowState) []PhaseView {
	var views []PhaseView
	for _, phase := range tree.Phases() {
		view := PhaseView{
			Phase:     phase,
			Current:   !state.IsComplete && phase.ID == state.CurrentPhase,
			Completed: state.IsComplete || phase.ID < state.CurrentPhase,
		}

		if phase.IsMenu() {
			if !view.Current && !view.Completed {
				continue
			}
			view.Menu, view.CanContinue = menuItems(phase, state, view.Completed)
			views = append(views, view)
			continue
		}

		if !phaseVisited(tree, state, phase.ID) {
			continue
		}
		view.Rows = BuildRows(tree, state, phase.ID)
		view.Terminal = Completion(tree, phase.ID, view.Rows)
		views = append(views, view)
	}
	return views
}

func menuItems(phase domain.Phase, state *domain.FlowState, completed bool) ([]MenuItem, bool) {
	answered := 0
	for _, opt := range phase.Options {
		if _, ok := state.MenuSelections[opt.ID]; ok {
			answered++
		}
	}

	show := len(phase.Options)
	if !completed && answered+1 < show {
		show = answered + 1
	}

	items := make([]MenuItem, 0, show)
	for _, opt := range phase.Options[:show] {
		value, ok := state.MenuSelections[opt.ID]
		items = append(items, MenuItem{Option: opt, Answered: ok, Value: value})
	}
	return items, !completed && answered == len(phase.Options)
}

func phaseVisited(tree *domain.Tree, state *domain.FlowState, phaseID int) bool {
	for _, id := range state.VisitedPath {
		if n, ok := tree.Node(id); ok && n.Phase == phaseID {
			return true
		}
	}
	return false
}
