package schema_test

import (
	"testing"

	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
title: Platform Decisions
phases:
  - id: 1
    title: Architecture
    type: tree
    startNode: Q1
  - id: 2
    title: Features
    type: menu
    options:
      - id: F1
        question: Enable audit logging?
      - id: F2
        question: Enable single sign-on?
nodes:
  - id: Q1
    phase: 1
    type: decision
    question: Do you need a managed platform?
    options:
      "NO": Q3
      "YES": Q2
  - id: Q2
    phase: 1
    type: decision
    question: Is the workload stateful?
    options:
      "YES": I1
      "NO": ~
    crossBranchLink:
      label: Reconsider
      targetId: Q3
  - id: Q3
    phase: 1
    type: decision
    question: Will you self host?
    options:
      "YES": I2
      "NO": null
  - {id: I1, phase: 1, type: info, title: Use managed storage, next: null}
  - {id: I2, phase: 1, type: info, title: Provision hardware, next: I3}
  - {id: I3, phase: 1, type: info, title: Self hosted stack}
`

func TestDecode_JSON(t *testing.T) {
	tree, err := schema.Decode([]byte(testutils.SampleJSON), schema.FormatJSON)
	require.NoError(t, err)

	assertSameTree(t, testutils.SampleTree(t), tree)
}

func TestDecode_YAMLKeepsOptionOrder(t *testing.T) {
	tree, err := schema.Decode([]byte(sampleYAML), schema.FormatYAML)
	require.NoError(t, err)

	q1, ok := tree.Node("Q1")
	require.True(t, ok)
	assert.Equal(t, []string{"NO", "YES"}, q1.Labels())

	q2, _ := tree.Node("Q2")
	assert.Equal(t, "Q3", q2.Resolve("NO"))

	i3, _ := tree.Node("I3")
	assert.Nil(t, i3.Next)
	assert.Equal(t, 2, tree.PhaseCount())
}

func TestDecode_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing nodes", `{"phases":[{"id":1,"startNode":"A"}]}`, "nodes is required"},
		{"phase id type", `{"phases":[{"id":"one"}],"nodes":[]}`, "phases.0.id"},
		{"node type enum", `{"phases":[{"id":1,"startNode":"A"}],"nodes":[{"id":"A","phase":1,"type":"text"}]}`, "nodes.0.type"},
		{"option target type", `{"phases":[{"id":1,"startNode":"A"}],"nodes":[{"id":"A","phase":1,"type":"decision","question":"?","options":{"YES":1}}]}`, "nodes.0.options.YES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Decode([]byte(tt.doc), schema.FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidTree)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	_, err := schema.Decode([]byte(`{"phases": [`), schema.FormatJSON)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	_, err = schema.Decode([]byte("phases: [\n  - id: 1\n bad"), schema.FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	_, err = schema.Decode(nil, schema.FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)
}

func TestDecode_StructuralErrors(t *testing.T) {
	doc := `{"phases":[{"id":1,"type":"tree","startNode":"A"}],"nodes":[{"id":"A","phase":1,"type":"decision","question":"?","options":{"YES":"ghost"}}]}`

	_, err := schema.Decode([]byte(doc), schema.FormatJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)
	assert.Equal(t, []string{`node "A" option YES references missing node "ghost"`}, domain.Issues(err))
}

func TestEncode_RoundTrip(t *testing.T) {
	tree := testutils.SampleTree(t)

	data, err := schema.Encode(tree)
	require.NoError(t, err)

	again, err := schema.Decode(data, schema.FormatJSON)
	require.NoError(t, err)
	assertSameTree(t, tree, again)
}

func assertSameTree(t *testing.T, want, got *domain.Tree) {
	t.Helper()
	a, err := schema.Encode(want)
	require.NoError(t, err)
	b, err := schema.Encode(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, schema.FormatYAML, schema.FormatFromPath("tree.YML"))
	assert.Equal(t, schema.FormatYAML, schema.FormatFromPath("a/b/tree.yaml"))
	assert.Equal(t, schema.FormatJSON, schema.FormatFromPath("tree.json"))
	assert.Equal(t, schema.FormatJSON, schema.FormatFromPath("tree"))
	assert.NotEmpty(t, schema.JSONSchema())
}
