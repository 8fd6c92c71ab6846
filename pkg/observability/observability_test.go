package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(t *testing.T, hooks domain.LifecycleHooks) {
	t.Helper()
	e, err := runtime.NewEngine(testutils.SampleTree(t),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithSessionID("s1"),
	)
	require.NoError(t, err)
	require.NoError(t, e.RecordDecision("Q1", "YES"))
	require.NoError(t, e.RecordDecision("Q1", "NO"))
	require.NoError(t, e.RecordDecision("Q3", "YES"))
	require.NoError(t, e.RecordInfoContinue("I2"))
	require.NoError(t, e.RecordInfoContinue("I3"))
	require.NoError(t, e.SetMenuSelection("F1", true))
	require.NoError(t, e.SetMenuSelection("F2", false))
	require.NoError(t, e.ContinueMenu())
	require.NoError(t, e.Reset())
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	walk(t, m.Hooks())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("1", "Q1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("1", "Q2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("1", "I3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("Q1", "YES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("Q1", "NO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Revisions.WithLabelValues("Q1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MenuAnswers.WithLabelValues("F1", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MenuAnswers.WithLabelValues("F2", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PhaseEntries.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseEntries.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resets))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText)

	walk(t, observability.LoggingHooks(logger))

	out := buf.String()
	assert.Contains(t, out, "msg=revision")
	assert.Contains(t, out, "previous=YES")
	assert.Contains(t, out, "msg=menu_answer")
	assert.Contains(t, out, "value=true")
	assert.Contains(t, out, "msg=complete")
	assert.Contains(t, out, "session_id=s1")
}
