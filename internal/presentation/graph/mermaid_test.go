package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/branchwise/internal/presentation/graph"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tree := testutils.SampleTree(t)
	out := graph.GenerateMermaid(tree, 0, nil)

	contains := []string{
		"graph TD\n",
		`subgraph phase1["Phase 1: Architecture"]`,
		`Q1{"Do you need a managed platform?"}`,
		`Q1 -- "YES" --> Q2`,
		`Q1 -- "NO" --> Q3`,
		`Q2 -. "Reconsider" .-> Q3`,
		`I2["Provision hardware"]`,
		`I2 --> I3`,
		`I3(["Self hosted stack"])`,
		`subgraph phase2["Phase 2: Features"]`,
		`F1[/"Enable audit logging?"/]`,
	}
	for _, want := range contains {
		assert.Contains(t, out, want)
	}

	// Options without a target draw nothing.
	assert.NotContains(t, out, `Q3 -- "NO"`)
	assert.NotContains(t, out, "Overlay Styles")
}

func TestGenerateMermaid_SinglePhase(t *testing.T) {
	tree := testutils.SampleTree(t)
	out := graph.GenerateMermaid(tree, 2, nil)

	assert.Contains(t, out, "subgraph phase2")
	assert.NotContains(t, out, "subgraph phase1")
	assert.NotContains(t, out, "Q1")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	tree := testutils.SampleTree(t)
	state := &domain.FlowState{
		VisitedPath:    []string{"Q1", "Q2", "I1"},
		CurrentNodeID:  "I1",
		Choices:        map[string]string{"Q1": "YES", "Q2": "YES"},
		MenuSelections: map[string]bool{"F1": true, "F2": false},
		CurrentPhase:   1,
	}

	out := graph.GenerateMermaid(tree, 0, graph.OverlayFromState(state))
	assert.Contains(t, out, "class Q1 visited;")
	assert.Contains(t, out, "class Q2 visited;")
	assert.Contains(t, out, "class I1 current;")
	assert.NotContains(t, out, "class I1 visited;")
	assert.Contains(t, out, "class F1 yes;")
	assert.Contains(t, out, "class F2 no;")

	phaseTwo := graph.GenerateMermaid(tree, 2, graph.OverlayFromState(state))
	assert.NotContains(t, phaseTwo, "class Q1")
	assert.Contains(t, phaseTwo, "class F1 yes;")
}

func TestGenerateMermaid_Escaping(t *testing.T) {
	doc := domain.Document{
		Phases: []domain.Phase{{ID: 1, Type: domain.PhaseTypeTree, StartNode: "step-1"}},
		Nodes: []domain.Node{
			testutils.Decision("step-1", 1, `Use "fast" mode?`, testutils.Yes("step.2"), testutils.No("")),
			testutils.Info("step.2", 1, "Done", ""),
		},
	}
	out := graph.GenerateMermaid(testutils.MustTree(t, doc), 0, nil)

	assert.Contains(t, out, `subgraph phase1["Phase 1"]`)
	assert.Contains(t, out, `step_1{"Use #quot;fast#quot; mode?"}`)
	assert.Contains(t, out, `step_1 -- "YES" --> step_2`)
	assert.False(t, strings.Contains(out, `"fast"`))
}

func TestOverlayFromState_Nil(t *testing.T) {
	assert.Nil(t, graph.OverlayFromState(nil))
}
