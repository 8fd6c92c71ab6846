package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchwise/pkg/domain"
)

// Overlay contains traversal data to visualize on the graph.
type Overlay struct {
	VisitedNodes   []string
	CurrentNode    string
	MenuSelections map[string]bool
}

// OverlayFromState builds the overlay of a flow state. A nil state yields nil.
func OverlayFromState(state *domain.FlowState) *Overlay {
	if state == nil {
		return nil
	}
	return &Overlay{
		VisitedNodes:   state.VisitedPath,
		CurrentNode:    state.CurrentNodeID,
		MenuSelections: state.MenuSelections,
	}
}

// GenerateMermaid produces a Mermaid flowchart of the tree, one subgraph per
// phase. phaseID 0 renders every phase. It applies semantic styling:
// - Decision: {Rhombus}
// - Info: [Rectangle], or ([Stadium]) when it ends its phase
// - Menu option: [/Parallelogram/]
// Options without a target draw no edge. Cross-branch links are dotted.
func GenerateMermaid(tree *domain.Tree, phaseID int, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, phase := range tree.Phases() {
		if phaseID != 0 && phase.ID != phaseID {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph phase%d[\"%s\"]\n", phase.ID, escape(phaseTitle(phase)))

		if phase.IsMenu() {
			for _, opt := range phase.Options {
				fmt.Fprintf(&sb, "        %s[/\"%s\"/]\n", sanitizeMermaidID(opt.ID), escape(opt.Question))
			}
			sb.WriteString("    end\n")
			continue
		}

		for _, node := range tree.PhaseNodes(phase.ID) {
			writeNode(&sb, node)
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil {
		writeOverlay(&sb, tree, phaseID, overlay)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, node *domain.Node) {
	id := sanitizeMermaidID(node.ID)
	if node.IsDecision() {
		fmt.Fprintf(sb, "        %s{\"%s\"}\n", id, escape(node.Question))
		for _, edge := range node.Edges() {
			if edge.Target == "" {
				continue
			}
			fmt.Fprintf(sb, "        %s -- \"%s\" --> %s\n", id, escape(edge.Label), sanitizeMermaidID(edge.Target))
		}
		if link := node.CrossBranchLink; link != nil {
			fmt.Fprintf(sb, "        %s -. \"%s\" .-> %s\n", id, escape(link.Label), sanitizeMermaidID(link.TargetID))
		}
		return
	}

	next := node.NextID()
	if next == "" {
		fmt.Fprintf(sb, "        %s([\"%s\"])\n", id, escape(node.Title))
		return
	}
	fmt.Fprintf(sb, "        %s[\"%s\"]\n", id, escape(node.Title))
	fmt.Fprintf(sb, "        %s --> %s\n", id, sanitizeMermaidID(next))
}

func writeOverlay(sb *strings.Builder, tree *domain.Tree, phaseID int, overlay *Overlay) {
	inScope := func(id string) bool {
		node, ok := tree.Node(id)
		return ok && (phaseID == 0 || node.Phase == phaseID)
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on both light and dark themes.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef yes fill:#c8e6c9,stroke:#2e7d32,color:#000;\n")
	sb.WriteString("    classDef no fill:#ffcdd2,stroke:#c62828,color:#000;\n")

	seen := make(map[string]bool)
	for _, id := range overlay.VisitedNodes {
		if seen[id] || id == overlay.CurrentNode || !inScope(id) {
			continue
		}
		seen[id] = true
		fmt.Fprintf(sb, "    class %s visited;\n", sanitizeMermaidID(id))
	}
	if overlay.CurrentNode != "" && inScope(overlay.CurrentNode) {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
	}

	for _, phase := range tree.Phases() {
		if !phase.IsMenu() || (phaseID != 0 && phase.ID != phaseID) {
			continue
		}
		for _, opt := range phase.Options {
			value, answered := overlay.MenuSelections[opt.ID]
			if !answered {
				continue
			}
			class := "no"
			if value {
				class = "yes"
			}
			fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(opt.ID), class)
		}
	}
}

func phaseTitle(p domain.Phase) string {
	if p.Title == "" {
		return fmt.Sprintf("Phase %d", p.ID)
	}
	return fmt.Sprintf("Phase %d: %s", p.ID, p.Title)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
