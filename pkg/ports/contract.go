package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractState(sessionID string) *domain.FlowState {
	s := domain.NewFlowState()
	s.SessionID = sessionID
	s.Visit("Q1")
	s.Visit("Q2")
	s.CurrentNodeID = "Q2"
	s.SetChoice("Q1", "YES")
	s.MenuSelections["F1"] = true
	return s
}

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := contractState(sessionID)

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, state.VisitedPath, loaded.VisitedPath)
		assert.Equal(t, state.Choices, loaded.Choices)
		assert.Equal(t, state.ChoiceOrder, loaded.ChoiceOrder)
		assert.Equal(t, state.MenuSelections, loaded.MenuSelections)
		assert.Equal(t, state.CurrentPhase, loaded.CurrentPhase)
		assert.Equal(t, state.IsComplete, loaded.IsComplete)
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Choices["Q1"] = "NO"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "YES", again.Choices["Q1"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		state := contractState(sessionID)
		state.IsComplete = true
		state.CurrentPhase = 3
		state.CurrentNodeID = ""
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, loaded.IsComplete)
		assert.Equal(t, "", loaded.CurrentNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractState(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractState(id1)))
		require.NoError(t, store.Save(ctx, id2, contractState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
