package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gogit "github.com/go-git/go-git/v5"

	"github.com/kurobon/gitlanes/internal/graph"
	"github.com/kurobon/gitlanes/internal/state"
)

type Server struct {
	SessionManager *state.SessionManager
	Router         chi.Router
	// Defaults are used for every graph request before query overrides.
	Defaults graph.Options
	logger   *log.Logger
}

func NewServer(sm *state.SessionManager, defaults graph.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		SessionManager: sm,
		Router:         chi.NewRouter(),
		Defaults:       defaults,
		logger:         logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(s.requestLogger)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}))

	s.Router.Get("/ping", s.handlePing)
	s.Router.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Post("/session/open", s.handleOpenSession)
		r.Delete("/session/{id}", s.handleCloseSession)
		r.Get("/graph", s.handleGetGraph)
		r.Get("/graph.svg", s.handleGetGraphSVG)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// requestLogger attaches a per-request logger to the context and logs the
// outcome of each request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(log.WithContext(r.Context(), logger)))

		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "pong",
		"system":  "gitlanes",
	})
}

type OpenSessionRequest struct {
	Path string `json:"path"`
}

type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	session, err := s.SessionManager.CreateSession(req.Path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).Error("open session", "path", req.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	log.FromContext(r.Context()).Info("session opened", "session", session.ID, "path", session.Path)
	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.SessionManager.CloseSession(id) {
		writeError(w, http.StatusNotFound, state.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.SessionManager.Sessions()
	out := make([]SessionResponse, len(sessions))
	for i, session := range sessions {
		out[i] = sessionResponse(session)
	}
	writeJSON(w, http.StatusOK, out)
}

func sessionResponse(s *state.Session) SessionResponse {
	return SessionResponse{SessionID: s.ID, Path: s.Path, CreatedAt: s.CreatedAt}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
