package summary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/branchwise/pkg/domain"
)

// DefaultReportName is the file name used when exporting a report.
const DefaultReportName = "decisions-config.txt"

// TimestampLayout formats the "Generated" footer.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// WriteReport renders the flat text export: a header, one section per phase
// and a footer stamped with generated.
//
// Tree phases list "question: answer" for every visited decision node with a
// choice, in document order. Menu phases list every option as YES or NO.
func WriteReport(w io.Writer, tree *domain.Tree, state *domain.FlowState, generated time.Time) error {
	var sb strings.Builder

	title := tree.Title()
	if title == "" {
		title = "Decision Flow"
	}
	fmt.Fprintf(&sb, "%s - Configuration Summary\n", title)
	sb.WriteString(heavyRule + "\n")

	for _, phase := range tree.Phases() {
		sb.WriteString("\n")
		if phase.Title != "" {
			fmt.Fprintf(&sb, "PHASE %d: %s\n", phase.ID, phase.Title)
		} else {
			fmt.Fprintf(&sb, "PHASE %d\n", phase.ID)
		}
		sb.WriteString(lightRule + "\n")

		if phase.IsMenu() {
			for _, opt := range phase.Options {
				answer := "NO"
				if state.MenuSelections[opt.ID] {
					answer = "YES"
				}
				fmt.Fprintf(&sb, "%s: %s\n", opt.Question, answer)
			}
			continue
		}

		for _, node := range tree.PhaseNodes(phase.ID) {
			if !node.IsDecision() || !state.InPath(node.ID) {
				continue
			}
			if choice, ok := state.Choices[node.ID]; ok {
				fmt.Fprintf(&sb, "%s: %s\n", node.Question, choice)
			}
		}
	}

	sb.WriteString("\n" + heavyRule + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", generated.Format(TimestampLayout))

	_, err := io.WriteString(w, sb.String())
	return err
}

// Report returns WriteReport's output as a string.
func Report(tree *domain.Tree, state *domain.FlowState, generated time.Time) string {
	var sb strings.Builder
	_ = WriteReport(&sb, tree, state, generated)
	return sb.String()
}
