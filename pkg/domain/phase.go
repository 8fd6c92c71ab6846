package domain

// PhaseType defines how a phase is traversed.
type PhaseType string

const (
	// PhaseTypeTree walks a node graph from StartNode.
	PhaseTypeTree PhaseType = "tree"
	// PhaseTypeMenu asks a flat list of boolean questions.
	PhaseTypeMenu PhaseType = "menu"
)

// MenuOption is a single yes/no question of a menu phase.
type MenuOption struct {
	ID          string `json:"id" yaml:"id"`
	Question    string `json:"question" yaml:"question"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Phase is an ordered stage of the flow. IDs are 1-based and sequential.
type Phase struct {
	ID          int       `json:"id" yaml:"id"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Type        PhaseType `json:"type,omitempty" yaml:"type,omitempty"`

	// Tree variant
	StartNode string `json:"startNode,omitempty" yaml:"startNode,omitempty"`

	// Menu variant
	Options []MenuOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// IsMenu reports whether the phase is a menu phase.
func (p Phase) IsMenu() bool {
	return p.Type == PhaseTypeMenu
}

// IsTree reports whether the phase walks a node graph. An empty type means tree.
func (p Phase) IsTree() bool {
	return p.Type == PhaseTypeTree || p.Type == ""
}

// HasOption reports whether optionID belongs to this menu phase.
func (p Phase) HasOption(optionID string) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
