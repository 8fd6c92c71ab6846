package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/moogar0880/problems"
)

const problemMediaType = "application/problem+json"

// classify maps domain errors to a status and a problem type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, domain.ErrInvalidNode):
		return http.StatusUnprocessableEntity, "invalid_node"
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusUnprocessableEntity, "invalid_option"
	case errors.Is(err, domain.ErrNotMenuPhase):
		return http.StatusConflict, "not_menu_phase"
	case errors.Is(err, domain.ErrMenuIncomplete):
		return http.StatusConflict, "menu_incomplete"
	case errors.Is(err, domain.ErrFlowComplete):
		return http.StatusConflict, "flow_complete"
	case errors.Is(err, domain.ErrInvalidState):
		// The stored state no longer fits the loaded tree.
		return http.StatusConflict, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeProblem(w, status, problems.NewStatusProblem(status).
			WithInstance(r.URL.Path).
			WithType(kind).
			WithError(err))
		return
	}
	s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	writeProblem(w, status, problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(err.Error()))
}

func badRequest(w http.ResponseWriter, r *http.Request, kind, detail string) {
	writeProblem(w, http.StatusBadRequest, problems.NewStatusProblem(http.StatusBadRequest).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(detail))
}

func notFound(w http.ResponseWriter, r *http.Request, kind, detail string) {
	writeProblem(w, http.StatusNotFound, problems.NewStatusProblem(http.StatusNotFound).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(detail))
}

func writeProblem(w http.ResponseWriter, status int, problem any) {
	w.Header().Set("Content-Type", problemMediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}
