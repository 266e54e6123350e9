// Package server exposes the course question-answering system over HTTP:
// a JSON query API plus a websocket chat endpoint.
//
// Endpoints:
//
//	POST   /api/query         ask a question, optionally inside a session
//	GET    /api/courses       catalog stats (course count and titles)
//	DELETE /api/session/{id}  drop a session's history
//	GET    /health            liveness probe
//	GET    /ws                websocket chat
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"courserag/internal/models"
	"courserag/pkg/rag"
)

const (
	// DefaultAddr is where the server listens when no address is configured.
	DefaultAddr = ":8000"

	readHeaderTimeout = 10 * time.Second

	// writeTimeout allows for a query riding up to three model calls.
	writeTimeout = 120 * time.Second

	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// RAG is the slice of the question-answering system the server calls.
type RAG interface {
	Query(ctx context.Context, sessionID, text string) (string, []models.Source, error)
	Analytics(ctx context.Context) (rag.Analytics, error)
	CreateSession() string
	ClearSession(id string)
}

// Server routes API and websocket traffic onto a RAG system.
type Server struct {
	rag    RAG
	mux    *http.ServeMux
	logger *slog.Logger
}

func New(system RAG, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{rag: system, mux: http.NewServeMux(), logger: logger}

	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("DELETE /api/session/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s
}

// Handler returns the routed handler with recovery and logging applied.
func (s *Server) Handler() http.Handler {
	return s.recoveryMiddleware(s.loggingMiddleware(s.mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.rag.CreateSession()
	}

	answer, sources, err := s.rag.Query(r.Context(), sessionID, req.Query)
	if err != nil {
		s.logger.Error("query failed", "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rag.Analytics(r.Context())
	if err != nil {
		s.logger.Error("course analytics failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.rag.ClearSession(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// errorResponse carries the failure detail to API clients.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
