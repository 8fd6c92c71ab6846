package domain

import (
	"slices"
)

// StateDiff represents the changes between two flow states.
// It is serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`
	CurrentPhase  *int    `json:"current_phase,omitempty"`
	IsComplete    *bool   `json:"is_complete,omitempty"`

	// Path is set when the visited path changed.
	Path *PathDelta `json:"path,omitempty"`

	// Choices contains changed or added labels. Removed choices map to "".
	Choices map[string]string `json:"choices,omitempty"`

	// MenuSelections contains changed or added answers.
	MenuSelections map[string]bool `json:"menu_selections,omitempty"`

	// MenuCleared lists options whose answer was removed, sorted.
	MenuCleared []string `json:"menu_cleared,omitempty"`
}

// PathDelta is either an append (Truncated false) or a full replacement.
type PathDelta struct {
	Appended  []string `json:"appended,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
	Path      []string `json:"path,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
// It returns nil when nothing changed.
func Diff(oldState, newState *FlowState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		v := newState.CurrentNodeID
		diff.CurrentNodeID = &v
	}
	if oldState == nil || oldState.CurrentPhase != newState.CurrentPhase {
		v := newState.CurrentPhase
		diff.CurrentPhase = &v
	}
	if oldState == nil || oldState.IsComplete != newState.IsComplete {
		v := newState.IsComplete
		diff.IsComplete = &v
	}

	diff.Path = diffPath(oldState, newState)
	diff.Choices = diffChoices(oldState, newState)
	diff.MenuSelections, diff.MenuCleared = diffMenu(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffPath(old, new *FlowState) *PathDelta {
	if old == nil {
		if len(new.VisitedPath) == 0 {
			return nil
		}
		return &PathDelta{Appended: slices.Clone(new.VisitedPath)}
	}
	if slices.Equal(old.VisitedPath, new.VisitedPath) {
		return nil
	}
	oldLen := len(old.VisitedPath)
	if len(new.VisitedPath) > oldLen && slices.Equal(old.VisitedPath, new.VisitedPath[:oldLen]) {
		return &PathDelta{Appended: slices.Clone(new.VisitedPath[oldLen:])}
	}
	// Revision or reset rewrote the path.
	return &PathDelta{Truncated: true, Path: slices.Clone(new.VisitedPath)}
}

func diffChoices(old, new *FlowState) map[string]string {
	delta := make(map[string]string)
	for k, v := range new.Choices {
		if old == nil {
			delta[k] = v
			continue
		}
		if prev, ok := old.Choices[k]; !ok || prev != v {
			delta[k] = v
		}
	}
	if old != nil {
		for k := range old.Choices {
			if _, ok := new.Choices[k]; !ok {
				delta[k] = ""
			}
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffMenu(old, new *FlowState) (map[string]bool, []string) {
	delta := make(map[string]bool)
	for k, v := range new.MenuSelections {
		if old == nil {
			delta[k] = v
			continue
		}
		if prev, ok := old.MenuSelections[k]; !ok || prev != v {
			delta[k] = v
		}
	}
	var cleared []string
	if old != nil {
		for k := range old.MenuSelections {
			if _, ok := new.MenuSelections[k]; !ok {
				cleared = append(cleared, k)
			}
		}
		slices.Sort(cleared)
	}
	if len(delta) == 0 {
		delta = nil
	}
	return delta, cleared
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.CurrentPhase == nil &&
		d.IsComplete == nil &&
		d.Path == nil &&
		len(d.Choices) == 0 &&
		len(d.MenuSelections) == 0 &&
		len(d.MenuCleared) == 0
}
