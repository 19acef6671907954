// Package server exposes the dashboard document over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/repository"
	"github.com/n0roo/filiere-kit/internal/server/events"
)

// Config holds server configuration
type Config struct {
	Port    int
	Backend string        // backend name reported by /healthz
	Rules   filiere.Rules // checks applied before every save
}

// Server represents the web server
type Server struct {
	config Config
	repo   *repository.Repository
	hub    *events.SSEServer
	logger *zap.Logger
	now    func() time.Time
	srv    *http.Server
}

// NewServer creates a new server
func NewServer(config Config, repo *repository.Repository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config: config,
		repo:   repo,
		hub:    events.NewSSEServer(),
		logger: logger.With(zap.String("component", "server")),
		now:    time.Now,
	}
}

// Hub returns the event stream fed by the API handlers
func (s *Server) Hub() *events.SSEServer {
	return s.hub
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.handleGetDocument)
		r.Put("/document", s.handlePutDocument)

		r.Route("/filieres", func(r chi.Router) {
			r.Get("/", s.handleListFilieres)
			r.Get("/{key}", s.handleGetFiliere)
			r.Patch("/{key}", s.handlePatchFiliere)
			r.Post("/{key}/events", s.handleAddEvent)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/referents", s.handleReferents)

		// SSE (Server-Sent Events) for real-time updates
		r.Handle("/events", s.hub)
	})

	return r
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: /api/events streams stay open.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard API listening",
			zap.String("addr", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			zap.String("backend", s.config.Backend))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		stopHub()
		return s.Stop()
	}
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// requestID fills X-Request-Id with a uuid when the client sent none, so
// middleware.RequestID and the logs carry the same id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(middleware.RequestIDHeader, id)
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// corsMiddleware wraps a handler with CORS headers for all requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// JSON response helper
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

// Error response helper
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps an error from the repository or the edit rules to a
// response. Store failures are reported as 502 with the upstream status.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		loadErr  *repository.LoadError
		saveErr  *repository.SaveError
		validErr *filiere.ValidationError
	)

	switch {
	case errors.Is(err, filiere.ErrUnknownFiliere):
		s.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validErr):
		s.jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{
			"error": validErr.Error(),
			"field": validErr.Field,
		})
	case errors.As(err, &loadErr):
		s.upstreamError(w, r, err, loadErr.Status())
	case errors.As(err, &saveErr):
		s.upstreamError(w, r, err, saveErr.Status())
	default:
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error, status int) {
	s.logger.Warn("store failure",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("upstream_status", status),
		zap.Error(err))
	s.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
		"error":  err.Error(),
		"status": status,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"backend":     s.config.Backend,
		"sse_clients": s.hub.ClientCount(),
		"timestamp":   s.now().Format(time.RFC3339),
	})
}
