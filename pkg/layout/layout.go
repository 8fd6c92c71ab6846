// Package layout derives the row view of a traversal.
//
// Rows are recomputed from scratch for every (tree, state) pair; nothing is
// cached between calls.
package layout

import (
	"github.com/aretw0/branchwise/pkg/domain"
)

// RowKind distinguishes the root row from the branching rows below it.
type RowKind string

const (
	RowSingle RowKind = "single"
	RowSplit  RowKind = "split"
)

// NoParentColumn marks rows that were not produced by a column of the row above.
const NoParentColumn = -1

// Item is one node placed in a row.
type Item struct {
	Node *domain.Node `json:"node"`

	// ChoiceLabel is the option label leading to Node (the link label for cross-branch items).
	ChoiceLabel string `json:"choiceLabel,omitempty"`
	// ParentChoice is the label recorded on the parent.
	ParentChoice  string `json:"parentChoice,omitempty"`
	ParentID      string `json:"parentId,omitempty"`
	IsCrossBranch bool   `json:"isCrossBranch,omitempty"`

	// Column is the position of the option in the parent's option order.
	Column int `json:"column"`

	// Selected reports whether the parent's recorded choice leads here.
	Selected bool             `json:"selected"`
	State    domain.NodeState `json:"state"`
}

// Row is a horizontal band of the traversal view.
type Row struct {
	Kind         RowKind `json:"type"`
	Items        []Item  `json:"nodes"`
	ParentColumn int     `json:"parentColumn"`
}

// BuildRows lays out the traversed part of one tree phase: the start node on
// its own, then one split row per expanded decision. Only the first item of a
// row (in column order) with a recorded choice expands, so a single branch
// stays active per row.
func BuildRows(tree *domain.Tree, state *domain.FlowState, phaseID int) []Row {
	phase, ok := tree.Phase(phaseID)
	if !ok || !phase.IsTree() {
		return nil
	}
	root, ok := tree.NodeInPhase(phase.StartNode, phaseID)
	if !ok {
		return nil
	}

	rows := []Row{{
		Kind: RowSingle,
		Items: []Item{{
			Node:     root,
			Selected: true,
			State:    state.NodeState(root.ID),
		}},
		ParentColumn: NoParentColumn,
	}}

	if _, answered := state.Choices[root.ID]; !answered || !root.IsDecision() {
		return rows
	}

	frontier := Children(tree, state, root)
	parentColumn := NoParentColumn
	expanded := map[string]bool{root.ID: true}

	for len(frontier) > 0 {
		rows = append(rows, Row{Kind: RowSplit, Items: frontier, ParentColumn: parentColumn})

		var parent *Item
		for i := range frontier {
			item := &frontier[i]
			if _, answered := state.Choices[item.Node.ID]; answered && item.Node.IsDecision() {
				parent = item
				break
			}
		}
		if parent == nil || expanded[parent.Node.ID] {
			break
		}
		expanded[parent.Node.ID] = true
		parentColumn = parent.Column
		frontier = Children(tree, state, parent.Node)
	}
	return rows
}

// Children realizes the options of a decision node that lead to a node of the
// same phase. A "NO" option without a target contributes the cross-branch link.
func Children(tree *domain.Tree, state *domain.FlowState, node *domain.Node) []Item {
	if !node.IsDecision() {
		return nil
	}
	recorded := state.Choices[node.ID]

	var items []Item
	for col, edge := range node.Edges() {
		item := Item{
			ChoiceLabel:  edge.Label,
			ParentChoice: recorded,
			ParentID:     node.ID,
			Column:       col,
		}
		targetID := edge.Target
		if targetID == "" {
			if edge.Label != domain.ChoiceNo || node.CrossBranchLink == nil {
				continue
			}
			targetID = node.CrossBranchLink.TargetID
			item.ChoiceLabel = node.CrossBranchLink.Label
			item.IsCrossBranch = true
		}
		child, ok := tree.NodeInPhase(targetID, node.Phase)
		if !ok {
			continue
		}
		item.Node = child
		// A cross-branch item is selected by the "NO" it replaces.
		item.Selected = recorded != "" && recorded == edge.Label
		item.State = domain.NodeStateFuture
		if item.Selected && state.InPath(child.ID) {
			item.State = state.NodeState(child.ID)
		}
		items = append(items, item)
	}
	return items
}

// LastOnPath returns the node of the last row that lies on the selected path.
func LastOnPath(rows []Row) *domain.Node {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	for _, item := range last.Items {
		if item.Selected {
			return item.Node
		}
	}
	return nil
}

// FinalTreePhase returns the ID of the last tree phase, or 0 if there is none.
func FinalTreePhase(tree *domain.Tree) int {
	final := 0
	for _, p := range tree.Phases() {
		if p.IsTree() {
			final = p.ID
		}
	}
	return final
}

// Completion reports whether the completion box belongs under the rows of
// phaseID. Only the final tree phase carries it.
func Completion(tree *domain.Tree, phaseID int, rows []Row) bool {
	return phaseID == FinalTreePhase(tree) && Terminal(rows)
}

// Terminal reports whether the selected path of rows ends on an info node
// whose continuation is not part of the layout.
func Terminal(rows []Row) bool {
	node := LastOnPath(rows)
	if node == nil || !node.IsInfo() {
		return false
	}
	next := node.NextID()
	if next == "" {
		return true
	}
	for _, row := range rows {
		for _, item := range row.Items {
			if item.Node.ID == next {
				return false
			}
		}
	}
	return true
}
