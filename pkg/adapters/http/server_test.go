package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/adapters/memory"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	mgr := session.NewManager(testutils.SampleTree(t), memory.NewStore(),
		session.WithIDGenerator(func() string { return "s1" }),
	)
	opts = append([]Option{
		WithMetricsHandler(promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})),
		WithClock(func() time.Time { return generated }),
	}, opts...)
	srv := NewServer(mgr, opts...)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) SessionView {
	t.Helper()
	var view SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view), w.Body.String())
	return view
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, problemMediaType, w.Header().Get("Content-Type"))
	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return problem
}

func TestServer_Health(t *testing.T) {
	_, h := newTestServer(t)
	for _, path := range []string{"/", "/health"} {
		w := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	}
}

func TestServer_Info(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "branchwise-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.NotEmpty(t, info["version"])
}

func TestServer_OpenAPI(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Spec(), w.Body.Bytes())

	doc, err := loadSpec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/api/sessions/{id}/decisions"))
}

func TestServer_Metrics(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Tree(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/tree", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Platform Decisions", doc.Title)
	assert.Len(t, doc.Phases, 2)
}

func TestServer_FullFlow(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decodeView(t, w)
	assert.Equal(t, "s1", view.ID)
	assert.Equal(t, runtime.StageTree, view.Stage)
	require.NotNil(t, view.CurrentNode)
	assert.Equal(t, "Q1", view.CurrentNode.ID)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"NO"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Q3", decodeView(t, w).CurrentNode.ID)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q3","choice":"YES"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "I2", decodeView(t, w).CurrentNode.ID)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/continue", `{"nodeId":"I2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "I3", decodeView(t, w).CurrentNode.ID)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/continue", `{"nodeId":"I3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, w)
	assert.Equal(t, runtime.StageMenu, view.Stage)
	assert.Nil(t, view.CurrentNode)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/advance", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "menu_incomplete", decodeProblem(t, w)["type"])

	w = do(t, h, http.MethodPut, "/api/sessions/s1/menu/F1", `{"value":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPut, "/api/sessions/s1/menu/F2", `{"value":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeView(t, w).MenuComplete)

	w = do(t, h, http.MethodPost, "/api/sessions/s1/continue", `{"nodeId":"__continue__"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, w)
	assert.Equal(t, runtime.StageComplete, view.Stage)
	assert.True(t, view.State.IsComplete)

	w = do(t, h, http.MethodGet, "/api/sessions/s1/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sum SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	require.Len(t, sum.Items, 2)
	assert.Equal(t, "Q1", sum.Items[0].NodeID)
	assert.Equal(t, "NO", sum.Items[0].Answer)
	assert.Equal(t, "customized", sum.Recommendation.Kind)

	w = do(t, h, http.MethodGet, "/api/sessions/s1/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "decisions-config.txt")
	report := w.Body.String()
	assert.Contains(t, report, "PHASE 1: Architecture")
	assert.Contains(t, report, "Will you self host?: YES")
	assert.Contains(t, report, "Enable audit logging?: YES")
	assert.Contains(t, report, "Enable single sign-on?: NO")
	assert.Contains(t, report, "Generated: 2024-03-01 09:30:00")
}

func TestServer_Revision(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/sessions", "")
	do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"YES"}`)

	w := do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"NO"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.Equal(t, []string{"Q1", "Q3"}, view.State.VisitedPath)
	assert.Equal(t, map[string]string{"Q1": "NO"}, view.State.Choices)
}

func TestServer_Errors(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/sessions", "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/ghost", "", http.StatusNotFound, "session_not_found"},
		{"unknown session decision", http.MethodPost, "/api/sessions/ghost/decisions", `{"nodeId":"Q1","choice":"YES"}`, http.StatusNotFound, "session_not_found"},
		{"malformed body", http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":`, http.StatusBadRequest, "invalid_body"},
		{"missing field", http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1"}`, http.StatusBadRequest, "validation_error"},
		{"missing menu value", http.MethodPut, "/api/sessions/s1/menu/F1", `{}`, http.StatusBadRequest, "validation_error"},
		{"invalid option", http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"MAYBE"}`, http.StatusUnprocessableEntity, "invalid_option"},
		{"unreached node", http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q2","choice":"YES"}`, http.StatusUnprocessableEntity, "invalid_node"},
		{"menu outside menu phase", http.MethodPut, "/api/sessions/s1/menu/F1", `{"value":true}`, http.StatusConflict, "not_menu_phase"},
		{"advance outside menu phase", http.MethodPost, "/api/sessions/s1/advance", "", http.StatusConflict, "not_menu_phase"},
		{"bad phase parameter", http.MethodGet, "/api/sessions/s1/rows?phase=abc", "", http.StatusBadRequest, "invalid_parameter"},
		{"menu phase rows", http.MethodGet, "/api/sessions/s1/rows?phase=2", "", http.StatusNotFound, "phase_not_found"},
		{"delete unknown", http.MethodDelete, "/api/sessions/ghost", "", http.StatusNotFound, "session_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			problem := decodeProblem(t, w)
			assert.Equal(t, tt.kind, problem["type"])
			assert.Equal(t, float64(tt.status), problem["status"])
		})
	}
}

func TestServer_Rows(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/sessions", "")
	do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"YES"}`)

	for _, path := range []string{"/api/sessions/s1/rows", "/api/sessions/s1/rows?phase=1"} {
		w := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp RowsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Phase)
		require.Len(t, resp.Rows, 2)
		assert.Equal(t, "Q1", resp.Rows[0].Items[0].Node.ID)
		assert.False(t, resp.Terminal)
	}
}

func TestServer_ListAndDelete(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/sessions", "")
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())

	do(t, h, http.MethodPost, "/api/sessions", "")
	w = do(t, h, http.MethodGet, "/api/sessions", "")
	assert.JSONEq(t, `{"sessions":["s1"]}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/api/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Reset(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/sessions", "")
	do(t, h, http.MethodPost, "/api/sessions/s1/decisions", `{"nodeId":"Q1","choice":"YES"}`)

	w := do(t, h, http.MethodPost, "/api/sessions/s1/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.Equal(t, []string{"Q1"}, view.State.VisitedPath)
	assert.Empty(t, view.State.Choices)
}

func TestServer_CORS(t *testing.T) {
	_, h := newTestServer(t, WithAllowedOrigins("http://localhost:3000", "https://app.example.com/"))

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Events(t *testing.T) {
	srv, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/s1/events?watch=choices", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	require.Eventually(t, func() bool { return srv.Streams().Subscribers("s1") == 1 }, time.Second, 10*time.Millisecond)

	// The rejected decision commits nothing, so only the second one streams.
	post := func(body string) {
		resp, err := http.Post(ts.URL+"/api/sessions/s1/decisions", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
	}
	post(`{"nodeId":"Q1","choice":"MAYBE"}`)
	post(`{"nodeId":"Q1","choice":"YES"}`)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "s1", diff.SessionID)
	assert.Equal(t, map[string]string{"Q1": "YES"}, diff.Choices)
	require.NotNil(t, diff.CurrentNodeID)
	assert.Equal(t, "Q2", *diff.CurrentNodeID)
}

func TestServer_EventsUnknownSession(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/sessions/ghost/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatched(t *testing.T) {
	diff, err := json.Marshal(domain.StateDiff{SessionID: "s1", MenuSelections: map[string]bool{"F1": true}})
	require.NoError(t, err)

	assert.True(t, watched(string(diff), []string{"menu"}))
	assert.False(t, watched(string(diff), []string{"choices", "path"}))
	assert.True(t, watched("not json", []string{"node"}))

	cleared, err := json.Marshal(domain.StateDiff{SessionID: "s1", MenuCleared: []string{"F1"}})
	require.NoError(t, err)
	assert.True(t, watched(string(cleared), []string{"menu"}))
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "msg")
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	assert.Zero(t, sm.Subscribers("s1"))
}
