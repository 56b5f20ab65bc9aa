// Package http exposes the engine as a JSON API over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/input"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine defines what the API needs from the call engine.
type Engine interface {
	Start(ctx context.Context) (ivrflow.Response, error)
	Input(ctx context.Context, sessionID, raw string) (ivrflow.Response, error)
	End(ctx context.Context, sessionID string) (ivrflow.EndResult, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Flows() []ivrflow.FlowInfo
	Reload(ctx context.Context) error
	Observe(fn ivrflow.SessionObserver) func()
}

// Server serves the IVR API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	stop    func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server and subscribes it to session changes for event streams.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.stop = engine.Observe(func(_ context.Context, before, after *domain.Session) {
		if diff := domain.Diff(before, after); diff != nil {
			s.Streams.Broadcast(after.ID, diff)
		}
	})
	return s
}

// NewHandler creates a server and returns its routes.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Close stops forwarding session changes to event streams.
func (s *Server) Close() {
	if s.stop != nil {
		s.stop()
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/", s.GetInfo)
	r.Get("/health", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/ivr/start", s.StartCall)
		r.Post("/ivr/input", s.ProcessInput)
		r.Post("/ivr/end", s.EndCall)
		r.Get("/flows", s.GetFlows)
		r.Post("/flows/reload", s.ReloadFlows)
		r.Get("/session/{sessionID}", s.GetSession)
		r.Get("/session/{sessionID}/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type inputRequest struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

type endRequest struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Detail string   `json:"detail"`
	Errors []string `json:"errors,omitempty"`
}

// StartCall handles POST /api/ivr/start.
func (s *Server) StartCall(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Engine.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ProcessInput handles POST /api/ivr/input.
func (s *Server) ProcessInput(w http.ResponseWriter, r *http.Request) {
	var body inputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}
	resp, err := s.Engine.Input(r.Context(), body.SessionID, body.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// EndCall handles POST /api/ivr/end.
func (s *Server) EndCall(w http.ResponseWriter, r *http.Request) {
	var body endRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}
	res, err := s.Engine.End(r.Context(), body.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetFlows handles GET /api/flows.
func (s *Server) GetFlows(w http.ResponseWriter, r *http.Request) {
	flows := s.Engine.Flows()
	names := make([]string, len(flows))
	detail := make(map[string]ivrflow.FlowInfo, len(flows))
	for i, f := range flows {
		names[i] = f.Name
		detail[f.Name] = f
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"available_flows": names,
		"flows_detail":    detail,
	})
}

// ReloadFlows handles POST /api/flows/reload.
func (s *Server) ReloadFlows(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reload(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Flows reloaded",
		"flows":   len(s.Engine.Flows()),
	})
}

// GetSession handles GET /api/session/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Train IVR System API",
		"version": ivrflow.Version,
		"endpoints": map[string]string{
			"/api/ivr/start":           "Start new IVR session",
			"/api/ivr/input":           "Process user input (keypad or voice)",
			"/api/ivr/end":             "End IVR session",
			"/api/flows":               "Get available flows",
			"/api/flows/reload":        "Reload flow definitions",
			"/api/session/{id}":        "Get session details",
			"/api/session/{id}/events": "Stream session changes (SSE)",
			"/health":                  "Health check",
		},
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Session not found"})
	case errors.Is(err, domain.ErrSessionEnded):
		s.writeJSON(w, http.StatusConflict, errorResponse{Detail: "Session already ended"})
	case errors.Is(err, input.ErrInputTooLarge), errors.Is(err, input.ErrInvalidUTF8):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	case schema.IsValidation(err):
		resp := errorResponse{Detail: "Flow definitions are invalid; previous flows remain active"}
		for _, e := range schema.ValidationErrors(err) {
			resp.Errors = append(resp.Errors, e.Error())
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		s.logger.Error("Request failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
