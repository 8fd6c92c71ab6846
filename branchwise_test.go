package branchwise_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platform.json")
	require.NoError(t, os.WriteFile(path, []byte(testutils.SampleJSON), 0o644))
	return path
}

func TestNew_FromFile(t *testing.T) {
	eng, err := branchwise.New(writeTree(t))
	require.NoError(t, err)

	assert.Equal(t, "platform", eng.Name)
	assert.Equal(t, "Platform Decisions", eng.Tree().Title())
	assert.Equal(t, 2, eng.Tree().PhaseCount())
	assert.NotNil(t, eng.Sessions())
}

func TestNew_Errors(t *testing.T) {
	_, err := branchwise.New("")
	assert.Error(t, err)

	_, err = branchwise.New(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"phases": [], "nodes": []}`), 0o644))
	_, err = branchwise.New(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)
}

func TestEngine_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	var decisions []string
	eng, err := branchwise.New(writeTree(t), branchwise.WithLifecycleHooks(domain.LifecycleHooks{
		OnDecision: func(e *domain.FlowEvent) { decisions = append(decisions, e.NodeID+"="+e.Label) },
	}))
	require.NoError(t, err)

	state, err := eng.Start(ctx)
	require.NoError(t, err)
	id := state.SessionID
	require.NotEmpty(t, id)

	_, err = eng.RecordDecision(ctx, id, "Q1", "NO")
	require.NoError(t, err)
	state, err = eng.RecordDecision(ctx, id, "Q3", "YES")
	require.NoError(t, err)
	assert.Equal(t, "I2", state.CurrentNodeID)
	assert.Equal(t, []string{"Q1=NO", "Q3=YES"}, decisions)

	rows, err := eng.Rows(ctx, id, 1)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, layout.RowSingle, rows[0].Kind)

	items, err := eng.Summary(ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Q3", items[1].NodeID)

	var buf bytes.Buffer
	require.NoError(t, eng.WriteReport(ctx, id, &buf, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Contains(t, buf.String(), "Will you self host?: YES")
	assert.Contains(t, buf.String(), "Generated: 2024-01-02 03:04:05")

	resumed, err := eng.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state, resumed)

	state, err = eng.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Q1", state.CurrentNodeID)

	_, err = eng.RecordDecision(ctx, "ghost", "Q1", "YES")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
