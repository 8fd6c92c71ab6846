package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/branchwise/internal/presentation/tui"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/summary"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeMarkdown(t *testing.T) {
	tree := testutils.SampleTree(t)

	q2, _ := tree.Node("Q2")
	md := tui.NodeMarkdown(q2)
	assert.Contains(t, md, "### Is the workload stateful?")
	assert.Contains(t, md, "Options: **YES** / **NO**")
	assert.Contains(t, md, "_Reconsider: Q3_")

	i2, _ := tree.Node("I2")
	md = tui.NodeMarkdown(i2)
	assert.Equal(t, "### Provision hardware\n\n", md)
}

func TestMenuMarkdown(t *testing.T) {
	tree := testutils.SampleTree(t)
	phase, ok := tree.Phase(2)
	require.True(t, ok)

	md := tui.MenuMarkdown(phase, map[string]bool{"F1": true})
	assert.Contains(t, md, "## Features")
	assert.Contains(t, md, "- Enable audit logging? **YES**")
	assert.Contains(t, md, "- Enable single sign-on? _unanswered_")
}

func TestSummaryMarkdown(t *testing.T) {
	items := []summary.Item{{NodeID: "Q1", Question: "A | B?", Answer: "YES", Phase: 1}}
	md := tui.SummaryMarkdown("Platform", items, summary.Recommend(items))
	assert.Contains(t, md, "# Platform")
	assert.Contains(t, md, `| 1 | A \| B? | YES |`)
	assert.Contains(t, md, "> Based on your selections, we recommend a customized recommendation system with real-time tracking")

	md = tui.SummaryMarkdown("", nil, summary.Recommend(nil))
	assert.Contains(t, md, "# Summary")
	assert.Contains(t, md, "No decisions recorded.")
	assert.Contains(t, md, "hybrid")
}

func TestRenderers(t *testing.T) {
	out, err := tui.PlainRenderer("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)

	render, err := tui.NewStyleRenderer("notty")
	require.NoError(t, err)
	out, err = render("# Title\n\nbody text")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")

	_, err = tui.NewStyleRenderer("no-such-style")
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	plain := tui.NewPalette(termenv.Ascii)
	assert.Equal(t, "Q1", plain.Node(domain.NodeStateCurrent, "Q1"))
	assert.Equal(t, "YES", plain.Answer(true))
	assert.Equal(t, "NO", plain.Answer(false))

	color := tui.NewPalette(termenv.TrueColor)
	styled := color.Node(domain.NodeStateVisited, "Q1")
	assert.NotEqual(t, "Q1", styled)
	assert.Contains(t, styled, "Q1")
	assert.Contains(t, color.Error("boom"), "\x1b[")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, termenv.Ascii, "0.1.0")
	assert.Contains(t, buf.String(), "|_.__/")
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.NotContains(t, buf.String(), "\x1b[")
}
