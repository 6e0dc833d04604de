package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/internal/domain/location"
)

// LocationHandler serves GET /api/location.
type LocationHandler struct {
	deps Dependencies
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(deps Dependencies) *LocationHandler {
	return &LocationHandler{deps: deps}
}

type locationResponse struct {
	Success  bool   `json:"success"`
	District string `json:"district"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Source   string `json:"source"`
}

// HandleGetLocation resolves the caller's location. It always answers 200;
// an unresolvable location comes back as Unknown fields.
func (h *LocationHandler) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := app.ResolveInput{
		CountryHint: strings.TrimSpace(q.Get("country")),
		IP:          clientIP(r),
	}
	if c, ok := location.ParseCoordinates(q.Get("lat"), q.Get("lng")); ok {
		in.Coordinates = &c
	}

	res := h.deps.Resolve(r.Context(), in)
	writeJSON(w, http.StatusOK, locationResponse{
		Success:  true,
		District: res.District,
		City:     res.City,
		Country:  res.Country,
		Source:   res.Source,
	})
}

// clientIP returns the first X-Forwarded-For hop, else the remote address
// without its port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
