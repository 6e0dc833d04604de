package api

import (
	"net/http"
	"strings"

	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/logger"
)

// RankingsHandler serves GET /api/rankings in two modes: without a level
// parameter it is the country leaderboard (country required), with one it
// is the multi-level leaderboard.
type RankingsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, log logger.Logger) *RankingsHandler {
	return &RankingsHandler{deps: deps, logger: log}
}

type countryRankingsResponse struct {
	Success         bool             `json:"success"`
	Country         string           `json:"country"`
	Count           int              `json:"count"`
	Data            []ranking.Player `json:"data"`
	Cached          bool             `json:"cached"`
	CacheAgeSeconds *int64           `json:"cache_age_seconds,omitempty"`
}

type levelRankingsResponse struct {
	Success  bool             `json:"success"`
	Level    location.Level   `json:"level"`
	Location location.Triple  `json:"location"`
	Count    int              `json:"count"`
	Data     []ranking.Player `json:"data"`
	Cached   bool             `json:"cached"`
}

// HandleGetRankings handles GET /api/rankings requests.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("level") {
		h.handleCountry(w, r)
		return
	}

	level, err := location.ParseLevel(q.Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, titleInvalidLevel, err.Error())
		return
	}

	req := app.RankingsRequest{
		Level:    level,
		District: strings.TrimSpace(q.Get("district")),
		City:     strings.TrimSpace(q.Get("city")),
		Country:  strings.TrimSpace(q.Get("country")),
		IP:       clientIP(r),
	}
	if c, ok := location.ParseCoordinates(q.Get("lat"), q.Get("lng")); ok {
		req.Coordinates = &c
	}

	res, err := h.deps.GetRankings(r.Context(), req)
	if err != nil {
		h.logFailure(r, err)
		writeServiceError(w, err, titleInvalidLocation)
		return
	}

	writeJSON(w, http.StatusOK, levelRankingsResponse{
		Success:  true,
		Level:    res.Level,
		Location: res.Location,
		Count:    res.Count,
		Data:     res.Data,
		Cached:   res.Cached,
	})
}

// handleCountry serves the country leaderboard. lat and lng are accepted
// but not used: the country must be given.
func (h *RankingsHandler) handleCountry(w http.ResponseWriter, r *http.Request) {
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if !location.IsKnown(country) {
		writeError(w, http.StatusBadRequest, titleInvalidCountry, `Country is required and cannot be "Unknown"`)
		return
	}

	res, err := h.deps.GetRankings(r.Context(), app.RankingsRequest{
		Level:   location.LevelCountry,
		Country: country,
	})
	if err != nil {
		h.logFailure(r, err)
		writeServiceError(w, err, titleInvalidCountry)
		return
	}

	out := countryRankingsResponse{
		Success: true,
		Country: res.Location.Country,
		Count:   res.Count,
		Data:    res.Data,
		Cached:  res.Cached,
	}
	if res.Cached {
		age := res.CacheAge
		out.CacheAgeSeconds = &age
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RankingsHandler) logFailure(r *http.Request, err error) {
	if app.IsClientError(err) {
		h.logger.Debug(r.Context(), "rejected rankings request", logger.String("query", r.URL.RawQuery), logger.Error(err))
		return
	}
	h.logger.Error(r.Context(), "rankings request failed", logger.String("query", r.URL.RawQuery), logger.Error(err))
}
