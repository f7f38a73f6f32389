// Package httpapi exposes the discovery engine over HTTP. Results are
// streamed as they are produced, one JSON object per line, or over a
// websocket; there is no non-streaming endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/radar"
)

// Engine is the orchestrator surface the handlers need.
type Engine interface {
	Run(ctx context.Context, criteria radar.Criteria) <-chan radar.Message
	RunRadar(ctx context.Context, req radar.RadarRequest) <-chan radar.Message
}

// Caller identity is supplied by the surrounding product, not decided here.
const (
	headerUser     = "X-Radar-User"
	headerElevated = "X-Radar-Elevated"
)

// Handler serves the radar endpoints.
type Handler struct {
	engine   Engine
	validate *validator.Validate
	log      zerolog.Logger
}

// SearchRequest is the explicit-search payload. Keywords arrive as one
// free-text string and are split on whitespace and commas.
type SearchRequest struct {
	City     string `json:"city" validate:"required"`
	DateFrom string `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo   string `json:"dateTo" validate:"required,datetime=2006-01-02"`
	Keywords string `json:"keywords"`
}

// DetectRequest is the derived-input payload: the draft fields of a
// not-yet-published event.
type DetectRequest struct {
	Title            string   `json:"title" validate:"required"`
	Description      string   `json:"description"`
	LocationName     string   `json:"locationName"`
	LocationAddress  string   `json:"locationAddress"`
	StartsAt         string   `json:"startsAt" validate:"required"`
	OverrideKeywords []string `json:"overrideKeywords"`
}

// NewRouter builds the HTTP surface: streaming endpoints behind a per-IP
// throttle, plus health and metrics.
func NewRouter(engine Engine, cfg radar.ServerConfig, log zerolog.Logger) http.Handler {
	h := &Handler{
		engine:   engine,
		validate: validator.New(),
		log:      log.With().Str("component", "httpapi").Logger(),
	}

	r := chi.NewRouter()
	r.Use(h.requestID)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
		r.Post("/v1/radar/search", h.search)
		r.Post("/v1/radar/detect", h.detect)
		r.Get("/v1/radar/ws", h.websocket)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.stream(w, r, h.engine.Run(r.Context(), radar.Criteria{
		City:     req.City,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Keywords: radar.ParseKeywords(req.Keywords),
	}))
}

func (h *Handler) detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID := strings.TrimSpace(r.Header.Get(headerUser))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	h.stream(w, r, h.engine.RunRadar(r.Context(), radar.RadarRequest{
		Draft: radar.Draft{
			Title:           req.Title,
			Description:     req.Description,
			LocationName:    req.LocationName,
			LocationAddress: req.LocationAddress,
			StartsAt:        req.StartsAt,
		},
		UserID:           userID,
		Elevated:         strings.EqualFold(r.Header.Get(headerElevated), "true"),
		OverrideKeywords: req.OverrideKeywords,
	}))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := h.validate.Struct(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// requestID tags every request with an ID for log correlation.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger := h.log.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
