// Package summary projects recorded answers into an ordered list and a flat
// text report.
package summary

import (
	"fmt"
	"sort"

	"github.com/aretw0/branchwise/pkg/domain"
)

// Item is one answered question.
type Item struct {
	NodeID   string `json:"nodeId"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Phase    int    `json:"phase"`
}

// Project lists the answered decision nodes ordered by phase. Items of the
// same phase keep the order in which the choices were first recorded.
func Project(tree *domain.Tree, state *domain.FlowState) []Item {
	items := make([]Item, 0, len(state.Choices))
	for _, id := range state.OrderedChoices() {
		node, ok := tree.Node(id)
		if !ok || !node.IsDecision() {
			continue
		}
		items = append(items, Item{
			NodeID:   id,
			Question: node.Question,
			Answer:   state.Choices[id],
			Phase:    node.Phase,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Phase < items[j].Phase })
	return items
}

const (
	KindCustomized = "customized"
	KindHybrid     = "hybrid"
)

// Recommendation is the fixed closing text shown with a summary.
type Recommendation struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Recommend picks the fixed recommendation template for items.
func Recommend(items []Item) Recommendation {
	kind := KindHybrid
	if len(items) > 0 {
		kind = KindCustomized
	}
	return Recommendation{
		Kind: kind,
		Text: fmt.Sprintf(recommendationText, kind),
	}
}

const recommendationText = "Based on your selections, we recommend a %s recommendation system " +
	"with real-time tracking and personalized delivery. This configuration will maximize attendee engagement " +
	"while respecting privacy preferences."
