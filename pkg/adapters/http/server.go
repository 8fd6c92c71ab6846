package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAllowedOrigins are the development front ends allowed by CORS.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Server exposes a session manager over REST and SSE.
type Server struct {
	sessions *session.Manager
	streams  *StreamManager
	validate *validator.Validate
	logger   *slog.Logger
	origins  []string
	metrics  http.Handler
	now      func() time.Time

	apiVersion string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins replaces DefaultAllowedOrigins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = slices.Clone(origins)
	}
}

// WithMetricsHandler serves h on /metrics instead of the default Prometheus registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		if h != nil {
			s.metrics = h
		}
	}
}

// WithClock overrides the timestamp written into exported reports.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a server and subscribes its event streams to mgr.
func NewServer(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:   mgr,
		streams:    NewStreamManager(),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logging.NewNop(),
		origins:    slices.Clone(DefaultAllowedOrigins),
		metrics:    promhttp.Handler(),
		now:        time.Now,
		apiVersion: "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	if doc, err := loadSpec(); err == nil && doc.Info != nil {
		s.apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("failed to load OpenAPI spec", "err", err)
	}
	mgr.Observe(s.broadcast)
	return s
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	return NewServer(mgr, opts...).Handler()
}

// Streams returns the SSE subscriber registry.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors)

	r.Get("/", s.getHealth)
	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", s.getSpec)
	r.Handle("/metrics", s.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.getTree)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.listSessions)
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)
				r.Post("/decisions", s.recordDecision)
				r.Post("/continue", s.continueNode)
				r.Put("/menu/{optionId}", s.setMenuSelection)
				r.Post("/advance", s.continueMenu)
				r.Post("/reset", s.resetSession)
				r.Get("/rows", s.getRows)
				r.Get("/summary", s.getSummary)
				r.Get("/report", s.getReport)
				r.Get("/events", s.subscribeEvents)
			})
		})
	})
	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "branchwise-http",
		"version":     strings.TrimSpace(branchwise.Version),
		"api_version": s.apiVersion,
	})
}

func (s *Server) getSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(openAPISpec)
}

func (s *Server) broadcast(c session.Change) {
	if c.Diff == nil {
		return
	}
	payload, err := json.Marshal(c.Diff)
	if err != nil {
		s.logger.Error("failed to encode state diff", "session_id", c.SessionID, "err", err)
		return
	}
	s.streams.Broadcast(c.SessionID, string(payload))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
