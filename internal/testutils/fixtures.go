// Package testutils holds tree fixtures shared by the test suites.
package testutils

import (
	"testing"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/stretchr/testify/require"
)

// Decision builds a decision node.
func Decision(id string, phase int, question string, edges ...domain.Edge) domain.Node {
	return domain.Node{
		ID:       id,
		Phase:    phase,
		Type:     domain.NodeTypeDecision,
		Question: question,
		Options:  domain.NewOptions(edges...),
	}
}

// Info builds an info node. An empty next makes it terminal.
func Info(id string, phase int, title, next string) domain.Node {
	n := domain.Node{
		ID:    id,
		Phase: phase,
		Type:  domain.NodeTypeInfo,
		Title: title,
	}
	if next != "" {
		n.Next = domain.NextTo(next)
	}
	return n
}

// Yes and No are the usual two-way edges.
func Yes(target string) domain.Edge { return domain.Edge{Label: "YES", Target: target} }
func No(target string) domain.Edge  { return domain.Edge{Label: "NO", Target: target} }

// SampleDocument is a two phase questionnaire: a tree followed by a menu.
//
//	Q1 -YES-> Q2 -YES-> I1 (terminal)
//	          Q2 -NO--> (crossBranchLink) Q3
//	Q1 -NO--> Q3 -YES-> I2 -> I3 (terminal)
//	          Q3 -NO--> (end of phase)
//	Phase 2: menu F1, F2
func SampleDocument() domain.Document {
	q2 := Decision("Q2", 1, "Is the workload stateful?", Yes("I1"), No(""))
	q2.CrossBranchLink = &domain.CrossBranchLink{Label: "Reconsider", TargetID: "Q3"}

	return domain.Document{
		Title: "Platform Decisions",
		Phases: []domain.Phase{
			{ID: 1, Title: "Architecture", Type: domain.PhaseTypeTree, StartNode: "Q1"},
			{ID: 2, Title: "Features", Type: domain.PhaseTypeMenu, Options: []domain.MenuOption{
				{ID: "F1", Question: "Enable audit logging?"},
				{ID: "F2", Question: "Enable single sign-on?"},
			}},
		},
		Nodes: []domain.Node{
			Decision("Q1", 1, "Do you need a managed platform?", Yes("Q2"), No("Q3")),
			q2,
			Decision("Q3", 1, "Will you self host?", Yes("I2"), No("")),
			Info("I1", 1, "Use managed storage", ""),
			Info("I2", 1, "Provision hardware", "I3"),
			Info("I3", 1, "Self hosted stack", ""),
		},
	}
}

// ThreePhaseDocument extends SampleDocument with a final tree phase.
func ThreePhaseDocument() domain.Document {
	doc := SampleDocument()
	doc.Phases = append(doc.Phases, domain.Phase{ID: 3, Title: "Rollout", Type: domain.PhaseTypeTree, StartNode: "R1"})
	doc.Nodes = append(doc.Nodes,
		Decision("R1", 3, "Roll out gradually?", Yes("R2"), No("")),
		Info("R2", 3, "Canary release", ""),
	)
	return doc
}

// MenuFirstDocument starts with a menu phase.
func MenuFirstDocument() domain.Document {
	return domain.Document{
		Phases: []domain.Phase{
			{ID: 1, Title: "Preferences", Type: domain.PhaseTypeMenu, Options: []domain.MenuOption{
				{ID: "dark", Question: "Dark mode?"},
			}},
			{ID: 2, Title: "Setup", Type: domain.PhaseTypeTree, StartNode: "S1"},
		},
		Nodes: []domain.Node{
			Decision("S1", 2, "Install now?", Yes("S2"), No("")),
			Info("S2", 2, "Installing", ""),
		},
	}
}

// MustTree validates doc, failing the test on error.
func MustTree(t testing.TB, doc domain.Document) *domain.Tree {
	t.Helper()
	tree, err := domain.NewTree(doc)
	require.NoError(t, err)
	return tree
}

// SampleTree returns the validated SampleDocument.
func SampleTree(t testing.TB) *domain.Tree {
	t.Helper()
	return MustTree(t, SampleDocument())
}

// SampleJSON is SampleDocument as a JSON document.
const SampleJSON = `{
  "title": "Platform Decisions",
  "phases": [
    {"id": 1, "title": "Architecture", "type": "tree", "startNode": "Q1"},
    {"id": 2, "title": "Features", "type": "menu", "options": [
      {"id": "F1", "question": "Enable audit logging?"},
      {"id": "F2", "question": "Enable single sign-on?"}
    ]}
  ],
  "nodes": [
    {"id": "Q1", "phase": 1, "type": "decision", "question": "Do you need a managed platform?", "options": {"YES": "Q2", "NO": "Q3"}},
    {"id": "Q2", "phase": 1, "type": "decision", "question": "Is the workload stateful?", "options": {"YES": "I1", "NO": null},
     "crossBranchLink": {"label": "Reconsider", "targetId": "Q3"}},
    {"id": "Q3", "phase": 1, "type": "decision", "question": "Will you self host?", "options": {"YES": "I2", "NO": null}},
    {"id": "I1", "phase": 1, "type": "info", "title": "Use managed storage", "next": null},
    {"id": "I2", "phase": 1, "type": "info", "title": "Provision hardware", "next": "I3"},
    {"id": "I3", "phase": 1, "type": "info", "title": "Self hosted stack", "next": null}
  ]
}`
