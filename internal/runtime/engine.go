package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/pkg/domain"
)

// ContinueAction is the pseudo node id that triggers the menu continue action.
const ContinueAction = "__continue__"

// Stage is the coarse position of the flow state machine.
type Stage string

const (
	StageTree     Stage = "tree"
	StageMenu     Stage = "menu"
	StageComplete Stage = "complete"
)

// Engine is the decision flow state machine.
// It owns one FlowState and mutates it only through its transition methods.
// Every transition is all-or-nothing: on error the state is left untouched.
type Engine struct {
	tree      *domain.Tree
	state     *domain.FlowState
	sessionID string
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSessionID tags the state and emitted events with an identifier.
func WithSessionID(id string) EngineOption {
	return func(e *Engine) {
		e.sessionID = id
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func newEngine(tree *domain.Tree, opts ...EngineOption) (*Engine, error) {
	if tree == nil || tree.PhaseCount() == 0 {
		return nil, fmt.Errorf("%w: tree has no phases", domain.ErrInvalidTree)
	}
	e := &Engine{
		tree:   tree,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewEngine initializes a flow over tree, seeded from phase 1.
func NewEngine(tree *domain.Tree, opts ...EngineOption) (*Engine, error) {
	e, err := newEngine(tree, opts...)
	if err != nil {
		return nil, err
	}
	e.state = domain.NewFlowState()
	e.state.SessionID = e.sessionID
	if err := e.apply("initialize", func(tx *txn) error {
		e.seed(tx)
		return nil
	}); err != nil {
		return nil, err
	}
	return e, nil
}

// Restore rehydrates a persisted state after checking it against tree.
func Restore(tree *domain.Tree, state *domain.FlowState, opts ...EngineOption) (*Engine, error) {
	e, err := newEngine(tree, opts...)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", domain.ErrInvalidState)
	}
	restored := state.Clone()
	restored.Normalize()
	if err := checkState(tree, restored); err != nil {
		return nil, err
	}
	restored.ChoiceOrder = restored.OrderedChoices()
	if e.sessionID == "" {
		e.sessionID = restored.SessionID
	}
	restored.SessionID = e.sessionID
	e.state = restored
	return e, nil
}

// Tree returns the model the engine runs over.
func (e *Engine) Tree() *domain.Tree {
	return e.tree
}

// SessionID returns the identifier given at construction, if any.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// RecordDecision records label as the answer of a decision node and resolves
// the next node. Re-answering with a different label revises the flow:
// everything visited after the node is dropped before resolving forward.
func (e *Engine) RecordDecision(nodeID, label string) error {
	return e.apply("record_decision", func(tx *txn) error {
		node, ok := e.tree.Node(nodeID)
		if !ok || !node.IsDecision() {
			return fmt.Errorf("%w: %q is not a decision node", domain.ErrInvalidNode, nodeID)
		}
		if !node.HasOption(label) {
			return fmt.Errorf("%w: %q is not an option of %q", domain.ErrInvalidOption, label, nodeID)
		}
		s := tx.state
		if !s.InPath(nodeID) {
			return fmt.Errorf("%w: %q has not been reached", domain.ErrInvalidNode, nodeID)
		}

		prev, answered := s.Choice(nodeID)
		switch {
		case answered && prev == label && nodeID != s.CurrentNodeID:
			// Replay of an answer whose path forward is already in place.
			tx.noop = true
			return nil
		case answered && prev != label:
			s.TruncateAfter(nodeID)
			s.CurrentNodeID = nodeID
			s.CurrentPhase = node.Phase
			s.IsComplete = false
			tx.emit(&domain.FlowEvent{
				Type:     domain.EventRevision,
				Phase:    node.Phase,
				NodeID:   nodeID,
				NodeType: node.Type,
				Label:    label,
				Previous: prev,
			})
		case !answered && nodeID != s.CurrentNodeID:
			// Only hand-built states reach this; rewind so the path stays a walk.
			s.TruncateAfter(nodeID)
			s.CurrentNodeID = nodeID
			s.CurrentPhase = node.Phase
			s.IsComplete = false
		}

		s.SetChoice(nodeID, label)
		tx.emit(&domain.FlowEvent{
			Type:     domain.EventDecision,
			Phase:    node.Phase,
			NodeID:   nodeID,
			NodeType: node.Type,
			Label:    label,
		})

		if next := node.Resolve(label); next != "" {
			e.enterNode(tx, next)
			return nil
		}
		return e.advance(tx)
	})
}

// RecordInfoContinue acknowledges the current info node: its continuation
// becomes current, or the next phase starts when it has none.
// Acknowledging an info node that is no longer current is a no-op, so a late
// auto-advance never moves the flow twice.
func (e *Engine) RecordInfoContinue(nodeID string) error {
	return e.apply("record_info_continue", func(tx *txn) error {
		node, ok := e.tree.Node(nodeID)
		if !ok || !node.IsInfo() {
			return fmt.Errorf("%w: %q is not an info node", domain.ErrInvalidNode, nodeID)
		}
		s := tx.state
		if !s.InPath(nodeID) {
			return fmt.Errorf("%w: %q has not been reached", domain.ErrInvalidNode, nodeID)
		}
		if nodeID != s.CurrentNodeID {
			tx.noop = true
			return nil
		}
		if next := node.NextID(); next != "" {
			e.enterNode(tx, next)
			return nil
		}
		return e.advance(tx)
	})
}

// SetMenuSelection records the answer of a menu option of the active phase.
func (e *Engine) SetMenuSelection(optionID string, value bool) error {
	return e.apply("set_menu_selection", func(tx *txn) error {
		s := tx.state
		phase, ok := e.tree.Phase(s.CurrentPhase)
		if s.IsComplete || !ok || !phase.IsMenu() {
			return fmt.Errorf("%w: phase %d", domain.ErrNotMenuPhase, s.CurrentPhase)
		}
		if !phase.HasOption(optionID) {
			return fmt.Errorf("%w: %q is not an option of phase %d", domain.ErrInvalidOption, optionID, phase.ID)
		}
		s.MenuSelections[optionID] = value
		v := value
		tx.emit(&domain.FlowEvent{
			Type:  domain.EventMenuAnswer,
			Phase: phase.ID,
			Label: optionID,
			Value: &v,
		})
		return nil
	})
}

// AdvanceToNextPhase moves to the next phase, completing the flow after the last one.
func (e *Engine) AdvanceToNextPhase() error {
	return e.apply("advance", func(tx *txn) error {
		return e.advance(tx)
	})
}

// ContinueMenu is the menu continue action: it advances only once every
// option of the active menu phase has been answered.
func (e *Engine) ContinueMenu() error {
	return e.apply("continue_menu", func(tx *txn) error {
		s := tx.state
		phase, ok := e.tree.Phase(s.CurrentPhase)
		if s.IsComplete || !ok || !phase.IsMenu() {
			return fmt.Errorf("%w: phase %d", domain.ErrNotMenuPhase, s.CurrentPhase)
		}
		if !menuComplete(phase, s) {
			return fmt.Errorf("%w: phase %d", domain.ErrMenuIncomplete, phase.ID)
		}
		return e.advance(tx)
	})
}

// Continue dispatches a continue request: ContinueAction triggers the menu
// continue action, any other id acknowledges an info node.
func (e *Engine) Continue(nodeID string) error {
	if nodeID == ContinueAction {
		return e.ContinueMenu()
	}
	return e.RecordInfoContinue(nodeID)
}

// Reset restores the seeded state, dropping every choice and menu answer.
func (e *Engine) Reset() error {
	return e.apply("reset", func(tx *txn) error {
		tx.state = domain.NewFlowState()
		tx.state.SessionID = e.sessionID
		tx.emit(&domain.FlowEvent{Type: domain.EventReset, Phase: 1})
		e.seed(tx)
		return nil
	})
}

func (e *Engine) seed(tx *txn) {
	e.enterPhase(tx, 1)
}

func (e *Engine) advance(tx *txn) error {
	if tx.state.IsComplete {
		return domain.ErrFlowComplete
	}
	e.enterPhase(tx, tx.state.CurrentPhase+1)
	return nil
}

func (e *Engine) enterPhase(tx *txn, phaseID int) {
	s := tx.state
	s.CurrentPhase = phaseID

	phase, ok := e.tree.Phase(phaseID)
	if !ok {
		s.IsComplete = true
		s.CurrentNodeID = ""
		tx.emit(&domain.FlowEvent{Type: domain.EventComplete, Phase: phaseID})
		return
	}

	tx.emit(&domain.FlowEvent{Type: domain.EventPhaseEnter, Phase: phaseID})
	if phase.IsMenu() {
		s.CurrentNodeID = ""
		return
	}
	e.enterNode(tx, phase.StartNode)
}

func (e *Engine) enterNode(tx *txn, nodeID string) {
	node, _ := e.tree.Node(nodeID)
	tx.state.Visit(nodeID)
	tx.state.CurrentNodeID = nodeID
	evt := &domain.FlowEvent{Type: domain.EventNodeEnter, Phase: tx.state.CurrentPhase, NodeID: nodeID}
	if node != nil {
		evt.NodeType = node.Type
	}
	tx.emit(evt)
}

// txn is the working copy of one transition.
type txn struct {
	state  *domain.FlowState
	events []*domain.FlowEvent
	noop   bool
}

func (tx *txn) emit(evt *domain.FlowEvent) {
	tx.events = append(tx.events, evt)
}

// apply runs fn against a clone of the state and commits it on success.
// Events are dispatched only after the commit.
func (e *Engine) apply(op string, fn func(*txn) error) error {
	tx := &txn{state: e.state.Clone()}
	if err := fn(tx); err != nil {
		e.logger.Debug("transition rejected", "op", op, "err", err)
		return err
	}
	if tx.noop {
		e.logger.Debug("transition replayed", "op", op, "node", e.state.CurrentNodeID)
		return nil
	}

	e.state = tx.state
	e.logger.Debug("transition applied",
		"op", op,
		"node", e.state.CurrentNodeID,
		"phase", e.state.CurrentPhase,
		"complete", e.state.IsComplete,
	)

	ts := e.now()
	for _, evt := range tx.events {
		evt.Timestamp = ts
		evt.SessionID = e.sessionID
		e.hooks.Emit(evt)
	}
	return nil
}
