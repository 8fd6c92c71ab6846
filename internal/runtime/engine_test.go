package runtime_test

import (
	"testing"
	"time"

	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSampleEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	eng, err := runtime.NewEngine(testutils.SampleTree(t), opts...)
	require.NoError(t, err)
	return eng
}

func TestNewEngine_Seeds(t *testing.T) {
	eng := newSampleEngine(t)
	s := eng.State()

	assert.Equal(t, "Q1", s.CurrentNodeID)
	assert.Equal(t, []string{"Q1"}, s.VisitedPath)
	assert.Empty(t, s.Choices)
	assert.Empty(t, s.MenuSelections)
	assert.Equal(t, 1, s.CurrentPhase)
	assert.False(t, s.IsComplete)
	assert.Equal(t, runtime.StageTree, eng.Stage())
}

func TestNewEngine_RejectsEmptyTree(t *testing.T) {
	_, err := runtime.NewEngine(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)
}

func TestNewEngine_MenuFirst(t *testing.T) {
	eng, err := runtime.NewEngine(testutils.MustTree(t, testutils.MenuFirstDocument()))
	require.NoError(t, err)

	s := eng.State()
	assert.Equal(t, "", s.CurrentNodeID)
	assert.Empty(t, s.VisitedPath)
	assert.Equal(t, runtime.StageMenu, eng.Stage())

	require.NoError(t, eng.SetMenuSelection("dark", true))
	require.NoError(t, eng.Continue(runtime.ContinueAction))

	s = eng.State()
	assert.Equal(t, 2, s.CurrentPhase)
	assert.Equal(t, "S1", s.CurrentNodeID)
	assert.Equal(t, []string{"S1"}, s.VisitedPath)
}

func TestEngine_EndToEnd(t *testing.T) {
	eng := newSampleEngine(t)

	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	s := eng.State()
	assert.Equal(t, "Q2", s.CurrentNodeID)
	assert.Equal(t, []string{"Q1", "Q2"}, s.VisitedPath)

	require.NoError(t, eng.RecordDecision("Q2", "YES"))
	assert.Equal(t, "I1", eng.State().CurrentNodeID)

	// I1 has no continuation: acknowledging it ends the tree phase.
	require.NoError(t, eng.RecordInfoContinue("I1"))
	s = eng.State()
	assert.Equal(t, 2, s.CurrentPhase)
	assert.Equal(t, "", s.CurrentNodeID)
	assert.Equal(t, runtime.StageMenu, eng.Stage())
	assert.True(t, eng.PhaseComplete(1))
	assert.False(t, eng.PhaseComplete(2))

	require.NoError(t, eng.SetMenuSelection("F1", true))
	assert.False(t, eng.MenuComplete())
	assert.ErrorIs(t, eng.ContinueMenu(), domain.ErrMenuIncomplete)

	require.NoError(t, eng.SetMenuSelection("F2", false))
	assert.True(t, eng.MenuComplete())
	require.NoError(t, eng.Continue(runtime.ContinueAction))

	s = eng.State()
	assert.Equal(t, 3, s.CurrentPhase)
	assert.True(t, s.IsComplete)
	assert.Equal(t, "", s.CurrentNodeID)
	assert.Equal(t, runtime.StageComplete, eng.Stage())
	assert.Equal(t, map[string]bool{"F1": true, "F2": false}, s.MenuSelections)
}

func TestEngine_InfoChain(t *testing.T) {
	eng := newSampleEngine(t)

	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "YES"))
	require.NoError(t, eng.RecordInfoContinue("I2"))

	s := eng.State()
	assert.Equal(t, "I3", s.CurrentNodeID)
	assert.Equal(t, []string{"Q1", "Q3", "I2", "I3"}, s.VisitedPath)

	// A late timer for I2 must not move the flow again.
	require.NoError(t, eng.RecordInfoContinue("I2"))
	assert.Equal(t, s, eng.State())
}

func TestEngine_CrossBranchLink(t *testing.T) {
	eng := newSampleEngine(t)

	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	require.NoError(t, eng.RecordDecision("Q2", "NO"))

	s := eng.State()
	assert.Equal(t, "Q3", s.CurrentNodeID)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, s.VisitedPath)
	assert.Equal(t, map[string]string{"Q1": "YES", "Q2": "NO"}, s.Choices)
}

func TestEngine_DeadEndDecisionAdvancesPhase(t *testing.T) {
	eng := newSampleEngine(t)

	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "NO"))

	s := eng.State()
	assert.Equal(t, 2, s.CurrentPhase)
	assert.Equal(t, "", s.CurrentNodeID)
	assert.Equal(t, []string{"Q1", "Q3"}, s.VisitedPath)
}

func TestEngine_Revision(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	require.NoError(t, eng.RecordDecision("Q2", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "YES"))
	require.Equal(t, []string{"Q1", "Q2", "Q3", "I2"}, eng.State().VisitedPath)

	require.NoError(t, eng.RecordDecision("Q2", "YES"))

	s := eng.State()
	assert.Equal(t, []string{"Q1", "Q2", "I1"}, s.VisitedPath)
	assert.Equal(t, "I1", s.CurrentNodeID)
	assert.Equal(t, map[string]string{"Q1": "YES", "Q2": "YES"}, s.Choices)
	assert.NotContains(t, s.Choices, "Q3")
}

func TestEngine_RevisionTruncatesBeforeResolving(t *testing.T) {
	var events []*domain.FlowEvent
	record := func(e *domain.FlowEvent) { events = append(events, e) }
	eng := newSampleEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnRevision:  record,
		OnNodeEnter: record,
	}))

	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	require.NoError(t, eng.RecordDecision("Q2", "YES"))
	events = nil

	require.NoError(t, eng.RecordDecision("Q1", "NO"))

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventRevision, events[0].Type)
	assert.Equal(t, "Q1", events[0].NodeID)
	assert.Equal(t, "YES", events[0].Previous)
	assert.Equal(t, "NO", events[0].Label)
	assert.Equal(t, domain.EventNodeEnter, events[1].Type)
	assert.Equal(t, "Q3", events[1].NodeID)

	s := eng.State()
	assert.Equal(t, []string{"Q1", "Q3"}, s.VisitedPath)
	assert.Equal(t, map[string]string{"Q1": "NO"}, s.Choices)
	assert.Equal(t, []string{"Q1"}, s.ChoiceOrder)
}

func TestEngine_RevisionAfterCompletion(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "NO"))
	require.NoError(t, eng.SetMenuSelection("F1", true))
	require.NoError(t, eng.SetMenuSelection("F2", true))
	require.NoError(t, eng.ContinueMenu())
	require.True(t, eng.IsComplete())

	require.NoError(t, eng.RecordDecision("Q3", "YES"))

	s := eng.State()
	assert.False(t, s.IsComplete)
	assert.Equal(t, 1, s.CurrentPhase)
	assert.Equal(t, "I2", s.CurrentNodeID)
	// Menu answers survive a tree revision.
	assert.Equal(t, map[string]bool{"F1": true, "F2": true}, s.MenuSelections)
}

func TestEngine_Idempotence(t *testing.T) {
	steps := [][2]string{{"Q1", "YES"}, {"Q2", "NO"}, {"Q3", "NO"}}

	once := newSampleEngine(t)
	twice := newSampleEngine(t)
	for _, step := range steps {
		require.NoError(t, once.RecordDecision(step[0], step[1]))
		require.NoError(t, twice.RecordDecision(step[0], step[1]))
		require.NoError(t, twice.RecordDecision(step[0], step[1]))
		assert.Equal(t, once.State(), twice.State(), "after %v", step)
	}
}

func TestEngine_ReplayDoesNotEmit(t *testing.T) {
	decisions := 0
	eng := newSampleEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDecision: func(*domain.FlowEvent) { decisions++ },
	}))

	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	assert.Equal(t, 1, decisions)
}

func TestEngine_Completion(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	require.NoError(t, eng.RecordDecision("Q2", "YES"))
	require.NoError(t, eng.RecordInfoContinue("I1"))
	require.NoError(t, eng.SetMenuSelection("F1", false))
	require.NoError(t, eng.SetMenuSelection("F2", false))
	require.NoError(t, eng.ContinueMenu())
	complete := eng.State()
	require.True(t, complete.IsComplete)

	assert.ErrorIs(t, eng.AdvanceToNextPhase(), domain.ErrFlowComplete)
	assert.ErrorIs(t, eng.ContinueMenu(), domain.ErrNotMenuPhase)
	assert.ErrorIs(t, eng.SetMenuSelection("F1", true), domain.ErrNotMenuPhase)
	assert.NoError(t, eng.RecordInfoContinue("I1"))
	assert.NoError(t, eng.RecordDecision("Q2", "YES"))

	assert.Equal(t, complete, eng.State())
	assert.True(t, eng.PhaseComplete(2))
	_, ok := eng.ActivePhase()
	assert.False(t, ok)

	require.NoError(t, eng.Reset())
	assert.False(t, eng.IsComplete())
}

func TestEngine_ErrorsLeaveStateUntouched(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "YES"))
	before := eng.State()

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"unknown node", func() error { return eng.RecordDecision("ghost", "YES") }, domain.ErrInvalidNode},
		{"info node as decision", func() error { return eng.RecordDecision("I1", "YES") }, domain.ErrInvalidNode},
		{"unreached node", func() error { return eng.RecordDecision("Q3", "YES") }, domain.ErrInvalidNode},
		{"unknown label", func() error { return eng.RecordDecision("Q2", "MAYBE") }, domain.ErrInvalidOption},
		{"continue unknown node", func() error { return eng.RecordInfoContinue("ghost") }, domain.ErrInvalidNode},
		{"continue decision node", func() error { return eng.RecordInfoContinue("Q2") }, domain.ErrInvalidNode},
		{"continue unreached info", func() error { return eng.RecordInfoContinue("I3") }, domain.ErrInvalidNode},
		{"menu answer in tree phase", func() error { return eng.SetMenuSelection("F1", true) }, domain.ErrNotMenuPhase},
		{"menu continue in tree phase", func() error { return eng.Continue(runtime.ContinueAction) }, domain.ErrNotMenuPhase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), tt.want)
			assert.Equal(t, before, eng.State())
		})
	}
}

func TestEngine_MenuRejectsUnknownOption(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "NO"))
	before := eng.State()

	assert.ErrorIs(t, eng.SetMenuSelection("F9", true), domain.ErrInvalidOption)
	assert.Equal(t, before, eng.State())
}

func TestEngine_AdvanceToNextPhaseIsUngated(t *testing.T) {
	eng := newSampleEngine(t)

	require.NoError(t, eng.AdvanceToNextPhase())
	assert.Equal(t, 2, eng.State().CurrentPhase)

	require.NoError(t, eng.AdvanceToNextPhase())
	assert.True(t, eng.IsComplete())
}

func TestEngine_Reset(t *testing.T) {
	eng := newSampleEngine(t, runtime.WithSessionID("s-1"))
	seeded := eng.State()

	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "NO"))
	require.NoError(t, eng.SetMenuSelection("F1", true))

	require.NoError(t, eng.Reset())
	assert.Equal(t, seeded, eng.State())
	assert.Equal(t, "s-1", eng.State().SessionID)
}

func TestEngine_Queries(t *testing.T) {
	eng := newSampleEngine(t)
	require.NoError(t, eng.RecordDecision("Q1", "YES"))

	assert.Equal(t, domain.NodeStateVisited, eng.NodeState("Q1"))
	assert.Equal(t, domain.NodeStateCurrent, eng.NodeState("Q2"))
	assert.Equal(t, domain.NodeStateFuture, eng.NodeState("Q3"))
	assert.True(t, eng.IsOnActivePath("Q1"))
	assert.False(t, eng.IsOnActivePath("Q3"))

	node, ok := eng.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, "Q2", node.ID)

	phase, ok := eng.ActivePhase()
	require.True(t, ok)
	assert.Equal(t, "Architecture", phase.Title)

	label, ok := eng.Choice("Q1")
	assert.True(t, ok)
	assert.Equal(t, "YES", label)

	// State is a copy.
	s := eng.State()
	s.VisitedPath[0] = "mutated"
	assert.Equal(t, "Q1", eng.State().VisitedPath[0])
}

func TestEngine_LifecycleHooks(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var types []domain.EventType
	var last *domain.FlowEvent
	record := func(e *domain.FlowEvent) {
		types = append(types, e.Type)
		last = e
	}
	hooks := domain.LifecycleHooks{
		OnNodeEnter:  record,
		OnDecision:   record,
		OnMenuAnswer: record,
		OnPhaseEnter: record,
		OnComplete:   record,
		OnReset:      record,
	}

	eng := newSampleEngine(t,
		runtime.WithLifecycleHooks(hooks),
		runtime.WithSessionID("sess"),
		runtime.WithClock(func() time.Time { return ts }),
	)
	assert.Equal(t, []domain.EventType{domain.EventPhaseEnter, domain.EventNodeEnter}, types)
	assert.Equal(t, "sess", last.SessionID)
	assert.Equal(t, ts, last.Timestamp)

	types = nil
	require.NoError(t, eng.RecordDecision("Q1", "NO"))
	require.NoError(t, eng.RecordDecision("Q3", "NO"))
	require.NoError(t, eng.SetMenuSelection("F1", true))
	require.NoError(t, eng.SetMenuSelection("F2", true))
	require.NoError(t, eng.ContinueMenu())

	assert.Equal(t, []domain.EventType{
		domain.EventDecision, domain.EventNodeEnter,
		domain.EventDecision, domain.EventPhaseEnter,
		domain.EventMenuAnswer, domain.EventMenuAnswer,
		domain.EventComplete,
	}, types)

	types = nil
	require.NoError(t, eng.Reset())
	assert.Equal(t, []domain.EventType{domain.EventReset, domain.EventPhaseEnter, domain.EventNodeEnter}, types)
}

func TestEngine_HooksSkippedOnError(t *testing.T) {
	called := false
	eng := newSampleEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDecision: func(*domain.FlowEvent) { called = true },
	}))

	require.Error(t, eng.RecordDecision("Q1", "MAYBE"))
	assert.False(t, called)
}
