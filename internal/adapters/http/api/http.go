// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/pkg/logger"
	"github.com/okian/racketrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	GetRankings(ctx context.Context, req app.RankingsRequest) (app.RankingsResult, error)
	Resolve(ctx context.Context, in app.ResolveInput) app.Resolution
}

// Server wires HTTP routes for the rankings API.
type Server struct {
	healthHandler   *HealthHandler
	rankingsHandler *RankingsHandler
	locationHandler *LocationHandler
	logger          logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverSettings)

type serverSettings struct {
	logger logger.Logger
	now    func() time.Time
}

// WithLogger sets the logger handlers write to.
func WithLogger(l logger.Logger) Option {
	return func(s *serverSettings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for health timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *serverSettings) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverSettings{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("http")
	}
	return &Server{
		healthHandler:   NewHealthHandler(cfg.now),
		rankingsHandler: NewRankingsHandler(deps, cfg.logger),
		locationHandler: NewLocationHandler(deps),
		logger:          cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) error {
	if mux == nil {
		return ErrMissingMux
	}
	mux.HandleFunc("/api/health", s.route(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/api/rankings", s.route(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/api/location", s.route(s.locationHandler.HandleGetLocation, "location"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	return nil
}

// route applies the API middleware chain, outermost first.
func (s *Server) route(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(
		MetricsMiddleware(
			CORSMiddleware(
				GetOnlyMiddleware(h),
			),
			endpoint,
		),
	)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: title, Message: message})
}

// writeServiceError maps service errors onto the HTTP error taxonomy.
func writeServiceError(w http.ResponseWriter, err error, invalidTitle string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, invalidTitle, err.Error())
	case errors.Is(err, app.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, titleConfiguration,
			"Profile store is not configured. Please set RACKETRANK_DATABASE_URL.")
	case errors.Is(err, app.ErrStoreQuery):
		writeError(w, http.StatusInternalServerError, titleDatabase, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, titleInternal, err.Error())
	}
}
