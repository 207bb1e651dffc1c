// Package httpapi exposes the batch-detection endpoint, health check, and
// Prometheus metrics over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/queueworker"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

const (
	defaultMaxAgeHours = 24
	defaultBatchSize   = 10
)

// BatchRunner is the orchestrator surface the API depends on.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, req usecase.BatchRequest) (usecase.BatchResult, error)
}

// Enqueuer accepts single-item detection jobs for the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queueworker.Job) error
}

// Server handles the detection HTTP surface.
type Server struct {
	detector BatchRunner
	enqueuer Enqueuer
	logger   *slog.Logger
	router   chi.Router
}

// New builds the router around the batch orchestrator. gatherer may be nil
// to disable the metrics endpoint; enqueuer may be nil to disable the
// single-item job route.
func New(detector BatchRunner, enqueuer Enqueuer, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{detector: detector, enqueuer: enqueuer, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/api/detection/batch", s.handleBatch)
	if enqueuer != nil {
		r.Post("/api/detection/item", s.handleEnqueueItem)
	}

	s.router = r
	return s
}

// Handler exposes the router for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

type batchResponse struct {
	ContentType    string             `json:"contentType"`
	Processed      int                `json:"processed"`
	Errors         int                `json:"errors"`
	TitleMatches   int                `json:"titleMatches"`
	ContentMatches int                `json:"contentMatches"`
	TotalMatches   int                `json:"totalMatches"`
	Remaining      int                `json:"remaining"`
	SuccessRate    string             `json:"successRate"`
	Failures       []batchFailureItem `json:"failures,omitempty"`
}

type batchFailureItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	contentType := domain.ContentPodcast
	if raw := r.URL.Query().Get("contentType"); raw != "" {
		parsed, err := domain.ParseContentType(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		contentType = parsed
	}

	maxAgeHours, err := queryInt(r, "maxAgeHours", defaultMaxAgeHours)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	batchSize, err := queryInt(r, "batchSize", defaultBatchSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	result, err := s.detector.ProcessBatch(r.Context(), usecase.BatchRequest{
		ContentType: contentType,
		Limit:       batchSize,
		MaxAgeHours: maxAgeHours,
	})
	if err != nil {
		s.error("batch run failed", "content_type", contentType, "error", err)
		s.writeError(w, http.StatusInternalServerError, "batch run failed")
		return
	}

	s.debug("batch run served",
		"content_type", contentType,
		"processed", result.Processed,
		"errors", result.Errors,
		"duration", time.Since(started).String())

	resp := batchResponse{
		ContentType:    string(contentType),
		Processed:      result.Processed,
		Errors:         result.Errors,
		TitleMatches:   result.TitleMatches,
		ContentMatches: result.ContentMatches,
		TotalMatches:   result.TotalMatches,
		Remaining:      result.Remaining,
		SuccessRate:    result.SuccessRate,
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, batchFailureItem{ID: failure.ID, Error: failure.Err})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type enqueueRequest struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
}

func (s *Server) handleEnqueueItem(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ContentID == "" {
		s.writeError(w, http.StatusBadRequest, "contentId is required")
		return
	}
	contentType, err := domain.ParseContentType(req.ContentType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := queueworker.Job{ContentID: req.ContentID, ContentType: contentType}
	if err := s.enqueuer.Enqueue(r.Context(), job); err != nil {
		s.error("enqueue job", "content_id", req.ContentID, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, &paramError{name: name, raw: raw}
	}
	return value, nil
}

type paramError struct {
	name string
	raw  string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " value " + strconv.Quote(e.raw)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
