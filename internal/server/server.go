// Package server exposes the enrichment pipeline over HTTP for the forms
// layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/pipeline"
	"github.com/sells-group/entity-intel/internal/sanitize"
	"github.com/sells-group/entity-intel/pkg/anthropic"
)

// Enricher is the pipeline surface the server needs.
type Enricher interface {
	Enrich(ctx context.Context, req model.EnrichmentRequest) (*model.EnrichmentReport, error)
	ChatEdit(ctx context.Context, currentReport map[string]any, instruction, entityContext string) (map[string]any, error)
}

// Server handles enrichment HTTP requests.
type Server struct {
	enricher Enricher
	cfg      config.ServerConfig
}

// New creates a Server.
func New(enricher Enricher, cfg config.ServerConfig) *Server {
	return &Server{enricher: enricher, cfg: cfg}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/enrich", s.handleEnrich)
	r.Post("/api/chat-edit", s.handleChatEdit)
	return r
}

// enrichResponse is the envelope for both endpoints.
type enrichResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req model.EnrichmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, enrichResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	report, err := s.enricher.Enrich(ctx, req)
	if err != nil {
		status := statusFor(err)
		zap.L().Warn("enrich request failed",
			zap.String("entity", req.EntityName()),
			zap.Int("status", status),
			zap.Error(err))
		writeJSON(w, status, enrichResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, enrichResponse{Success: true, Data: report})
}

// chatEditRequest carries an existing report and a free-form instruction.
type chatEditRequest struct {
	CurrentReport map[string]any `json:"current_report"`
	Instruction   string         `json:"instruction"`
	EntityContext string         `json:"entity_context"`
}

func (s *Server) handleChatEdit(w http.ResponseWriter, r *http.Request) {
	var req chatEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, enrichResponse{Error: "invalid request body"})
		return
	}
	if req.Instruction == "" {
		writeJSON(w, http.StatusBadRequest, enrichResponse{Error: "instruction is required"})
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	updated, err := s.enricher.ChatEdit(ctx, req.CurrentReport, req.Instruction, req.EntityContext)
	if err != nil {
		status := statusFor(err)
		zap.L().Warn("chat edit failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, enrichResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, enrichResponse{Success: true, Data: updated})
}

func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	secs := s.cfg.RequestTimeoutSecs
	if secs <= 0 {
		secs = 180
	}
	return context.WithTimeout(parent, time.Duration(secs)*time.Second)
}

// statusFor maps pipeline error kinds to HTTP statuses. Callers get either a
// source-backed report or a clear failure; unreliable data never rides a 200.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrInsufficientEvidence), errors.Is(err, sanitize.ErrUngrounded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, anthropic.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, anthropic.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}
