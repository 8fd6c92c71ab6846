package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventDecision   EventType = "decision"
	EventRevision   EventType = "revision"
	EventMenuAnswer EventType = "menu_answer"
	EventPhaseEnter EventType = "phase_enter"
	EventComplete   EventType = "complete"
	EventReset      EventType = "reset"
)

// FlowEvent describes a committed transition.
type FlowEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Phase     int       `json:"phase"`
	NodeID    string    `json:"node_id,omitempty"`
	NodeType  NodeType  `json:"node_type,omitempty"`

	// Label is the chosen option for decisions and revisions,
	// or the menu option id for menu answers.
	Label string `json:"label,omitempty"`

	// Previous is the replaced label on revision.
	Previous string `json:"previous,omitempty"`

	// Value is the answer of a menu option.
	Value *bool `json:"value,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run after the state change is committed and never affect it.
type LifecycleHooks struct {
	OnNodeEnter  func(*FlowEvent)
	OnDecision   func(*FlowEvent)
	OnRevision   func(*FlowEvent)
	OnMenuAnswer func(*FlowEvent)
	OnPhaseEnter func(*FlowEvent)
	OnComplete   func(*FlowEvent)
	OnReset      func(*FlowEvent)
}

// Emit dispatches the event to the matching hook, if set.
func (h LifecycleHooks) Emit(evt *FlowEvent) {
	var fn func(*FlowEvent)
	switch evt.Type {
	case EventNodeEnter:
		fn = h.OnNodeEnter
	case EventDecision:
		fn = h.OnDecision
	case EventRevision:
		fn = h.OnRevision
	case EventMenuAnswer:
		fn = h.OnMenuAnswer
	case EventPhaseEnter:
		fn = h.OnPhaseEnter
	case EventComplete:
		fn = h.OnComplete
	case EventReset:
		fn = h.OnReset
	}
	if fn != nil {
		fn(evt)
	}
}

// MergeHooks combines several hook sets; each callback fires in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	chain := func(pick func(LifecycleHooks) func(*FlowEvent)) func(*FlowEvent) {
		var fns []func(*FlowEvent)
		for _, s := range sets {
			if fn := pick(s); fn != nil {
				fns = append(fns, fn)
			}
		}
		switch len(fns) {
		case 0:
			return nil
		case 1:
			return fns[0]
		}
		return func(evt *FlowEvent) {
			for _, fn := range fns {
				fn(evt)
			}
		}
	}
	return LifecycleHooks{
		OnNodeEnter:  chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnNodeEnter }),
		OnDecision:   chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnDecision }),
		OnRevision:   chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnRevision }),
		OnMenuAnswer: chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnMenuAnswer }),
		OnPhaseEnter: chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnPhaseEnter }),
		OnComplete:   chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnComplete }),
		OnReset:      chain(func(h LifecycleHooks) func(*FlowEvent) { return h.OnReset }),
	}
}
