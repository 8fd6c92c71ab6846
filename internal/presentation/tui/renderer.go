package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/summary"
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer backed by glamour.
// It detects light or dark backgrounds and falls back to plain text if the
// terminal renderer cannot be built.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// NewStyleRenderer returns a glamour Renderer using a named standard style
// ("dark", "light", "notty", ...).
func NewStyleRenderer(style string) (Renderer, error) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style))
	if err != nil {
		return nil, fmt.Errorf("failed to build %q renderer: %w", style, err)
	}
	return r.Render, nil
}

// PlainRenderer returns the markdown untouched. Used when stdout is not a terminal.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// NodeMarkdown describes a node awaiting interaction.
func NodeMarkdown(node *domain.Node) string {
	var sb strings.Builder
	if node.IsDecision() {
		fmt.Fprintf(&sb, "### %s\n\n", node.Question)
		if node.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", node.Description)
		}
		fmt.Fprintf(&sb, "Options: **%s**\n", strings.Join(node.Labels(), "** / **"))
		if link := node.CrossBranchLink; link != nil {
			fmt.Fprintf(&sb, "\n_%s: %s_\n", link.Label, link.TargetID)
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "### %s\n\n", node.Heading())
	if node.Description != "" {
		fmt.Fprintf(&sb, "%s\n", node.Description)
	}
	return sb.String()
}

// MenuMarkdown lists the options of a menu phase with their answers.
func MenuMarkdown(phase domain.Phase, selections map[string]bool) string {
	var sb strings.Builder
	title := phase.Title
	if title == "" {
		title = fmt.Sprintf("Phase %d", phase.ID)
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)
	for _, opt := range phase.Options {
		answer := "_unanswered_"
		if v, ok := selections[opt.ID]; ok {
			answer = "**NO**"
			if v {
				answer = "**YES**"
			}
		}
		fmt.Fprintf(&sb, "- %s %s\n", opt.Question, answer)
	}
	return sb.String()
}

// SummaryMarkdown renders the answered questions followed by the recommendation.
func SummaryMarkdown(title string, items []summary.Item, rec summary.Recommendation) string {
	var sb strings.Builder
	if title == "" {
		title = "Summary"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if len(items) == 0 {
		sb.WriteString("No decisions recorded.\n\n")
	} else {
		sb.WriteString("| Phase | Question | Answer |\n")
		sb.WriteString("|---|---|---|\n")
		for _, item := range items {
			fmt.Fprintf(&sb, "| %d | %s | %s |\n", item.Phase, escapeCell(item.Question), item.Answer)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "> %s\n", rec.Text)
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
