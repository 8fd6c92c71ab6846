package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/layout"
	"github.com/aretw0/branchwise/pkg/schema"
	"github.com/aretw0/branchwise/pkg/summary"
	"github.com/go-chi/chi/v5"
	oapiruntime "github.com/oapi-codegen/runtime"
)

// SessionView is the client-facing projection of a session.
type SessionView struct {
	ID           string             `json:"id"`
	Stage        runtime.Stage      `json:"stage"`
	State        *domain.FlowState  `json:"state"`
	CurrentNode  *domain.Node       `json:"currentNode,omitempty"`
	MenuComplete bool               `json:"menuComplete"`
	Phases       []layout.PhaseView `json:"phases"`
}

// DecisionRequest is the body of POST /api/sessions/{id}/decisions.
type DecisionRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
	Choice string `json:"choice" validate:"required"`
}

// ContinueRequest is the body of POST /api/sessions/{id}/continue.
type ContinueRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// MenuSelectionRequest is the body of PUT /api/sessions/{id}/menu/{optionId}.
type MenuSelectionRequest struct {
	Value *bool `json:"value" validate:"required"`
}

// RowsResponse is the row layout of one tree phase.
type RowsResponse struct {
	Phase    int          `json:"phase"`
	Rows     []layout.Row `json:"rows"`
	Terminal bool         `json:"terminal"`
}

// SummaryResponse lists the answered decisions.
type SummaryResponse struct {
	Items          []summary.Item         `json:"items"`
	Recommendation summary.Recommendation `json:"recommendation"`
}

func newSessionView(e *runtime.Engine) SessionView {
	state := e.State()
	view := SessionView{
		ID:           e.SessionID(),
		Stage:        e.Stage(),
		State:        state,
		MenuComplete: e.MenuComplete(),
		Phases:       layout.BuildPhases(e.Tree(), state),
	}
	if node, ok := e.CurrentNode(); ok {
		view.CurrentNode = node
	}
	if view.Phases == nil {
		view.Phases = []layout.PhaseView{}
	}
	return view
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, r, "invalid_body", fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(w, r, "validation_error", err.Error())
		return false
	}
	return true
}

// mutate applies fn to the session in the URL and answers with the new view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*runtime.Engine) error) {
	sessionID := chi.URLParam(r, "id")
	change, err := s.sessions.Apply(r.Context(), sessionID, fn)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	engine, err := runtime.Restore(s.sessions.Tree(), change.After, runtime.WithSessionID(sessionID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(engine))
}

func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*runtime.Engine, bool) {
	engine, err := s.sessions.Engine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return engine, true
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	data, err := schema.Encode(s.sessions.Tree())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	engine, err := runtime.Restore(s.sessions.Tree(), state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("session created", "session_id", state.SessionID)
	writeJSON(w, http.StatusCreated, newSessionView(engine))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.engine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(engine))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordDecision(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.mutate(w, r, func(e *runtime.Engine) error {
		return e.RecordDecision(body.NodeID, body.Choice)
	})
}

func (s *Server) continueNode(w http.ResponseWriter, r *http.Request) {
	var body ContinueRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.mutate(w, r, func(e *runtime.Engine) error {
		return e.Continue(body.NodeID)
	})
}

func (s *Server) setMenuSelection(w http.ResponseWriter, r *http.Request) {
	var body MenuSelectionRequest
	if !s.decode(w, r, &body) {
		return
	}
	optionID := chi.URLParam(r, "optionId")
	s.mutate(w, r, func(e *runtime.Engine) error {
		return e.SetMenuSelection(optionID, *body.Value)
	})
}

func (s *Server) continueMenu(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *runtime.Engine) error {
		return e.ContinueMenu()
	})
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *runtime.Engine) error {
		return e.Reset()
	})
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request) {
	var phaseID int
	if err := oapiruntime.BindQueryParameter("form", true, false, "phase", r.URL.Query(), &phaseID); err != nil {
		badRequest(w, r, "invalid_parameter", err.Error())
		return
	}
	engine, ok := s.engine(w, r)
	if !ok {
		return
	}
	tree := engine.Tree()
	state := engine.State()
	if phaseID == 0 {
		phaseID = min(state.CurrentPhase, tree.PhaseCount())
	}
	phase, found := tree.Phase(phaseID)
	if !found || !phase.IsTree() {
		notFound(w, r, "phase_not_found", fmt.Sprintf("no tree phase %d", phaseID))
		return
	}
	rows := layout.BuildRows(tree, state, phaseID)
	if rows == nil {
		rows = []layout.Row{}
	}
	writeJSON(w, http.StatusOK, RowsResponse{
		Phase:    phaseID,
		Rows:     rows,
		Terminal: layout.Completion(tree, phaseID, rows),
	})
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.engine(w, r)
	if !ok {
		return
	}
	items := summary.Project(engine.Tree(), engine.State())
	if items == nil {
		items = []summary.Item{}
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Items:          items,
		Recommendation: summary.Recommend(items),
	})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	engine, ok := s.engine(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", summary.DefaultReportName))
	if err := summary.WriteReport(w, engine.Tree(), engine.State(), s.now()); err != nil {
		s.logger.Error("failed to write report", "session_id", engine.SessionID(), "err", err)
	}
}
