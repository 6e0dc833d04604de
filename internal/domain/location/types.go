// Package location turns raw, inconsistent location input into canonical
// values that can be used as cache keys and store filters.
package location

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Unknown is the sentinel for a location field that could not be resolved.
const Unknown = "Unknown"

// ErrInvalidLevel is returned by ParseLevel for anything outside the enum.
var ErrInvalidLevel = errors.New("invalid level parameter. Must be: district, city, or country")

// Level is the granularity a leaderboard is scoped to.
type Level string

// Supported levels.
const (
	LevelDistrict Level = "district"
	LevelCity     Level = "city"
	LevelCountry  Level = "country"
)

// ParseLevel validates a raw level string. Matching is exact, as sent by clients.
func ParseLevel(raw string) (Level, error) {
	switch Level(raw) {
	case LevelDistrict, LevelCity, LevelCountry:
		return Level(raw), nil
	default:
		return "", ErrInvalidLevel
	}
}

// IsKnown reports whether v carries a usable location value.
func IsKnown(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, Unknown)
}

// Coordinates is a lat/lng pair together with the exact text it was parsed
// from. The text is kept because cache keys are built from it verbatim.
type Coordinates struct {
	Lat     float64
	Lng     float64
	latText string
	lngText string
}

// ParseCoordinates parses raw query values. It returns false when either
// value is missing, not a number, or out of range.
func ParseCoordinates(lat, lng string) (Coordinates, bool) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return Coordinates{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinates{}, false
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return Coordinates{}, false
	}
	if math.IsNaN(la) || math.IsNaN(lo) || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: la, Lng: lo, latText: lat, lngText: lng}, true
}

// NewCoordinates builds Coordinates from floats, formatting the key text
// with the shortest representation.
func NewCoordinates(lat, lng float64) Coordinates {
	return Coordinates{
		Lat:     lat,
		Lng:     lng,
		latText: strconv.FormatFloat(lat, 'f', -1, 64),
		lngText: strconv.FormatFloat(lng, 'f', -1, 64),
	}
}

// Key returns the "lat-lng" cache key. No rounding is applied: only
// identical text pairs share a key.
func (c Coordinates) Key() string {
	return c.latText + "-" + c.lngText
}

// LatText returns the latitude exactly as received.
func (c Coordinates) LatText() string { return c.latText }

// LngText returns the longitude exactly as received.
func (c Coordinates) LngText() string { return c.lngText }

// Triple is a best-effort resolved location. Every field is either a
// resolved value or Unknown.
type Triple struct {
	District string `json:"district"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// UnknownTriple returns a Triple with every field set to Unknown.
func UnknownTriple() Triple {
	return Triple{District: Unknown, City: Unknown, Country: Unknown}
}

// Field returns the value of the field backing level.
func (t Triple) Field(level Level) string {
	switch level {
	case LevelDistrict:
		return t.District
	case LevelCity:
		return t.City
	case LevelCountry:
		return t.Country
	}
	return ""
}

// Complete fills empty fields with Unknown.
func (t Triple) Complete() Triple {
	if strings.TrimSpace(t.District) == "" {
		t.District = Unknown
	}
	if strings.TrimSpace(t.City) == "" {
		t.City = Unknown
	}
	if strings.TrimSpace(t.Country) == "" {
		t.Country = Unknown
	}
	return t
}

// Query is the resolved location a ranking request targets. It is built
// once per request and not modified afterwards.
type Query struct {
	Level       Level
	District    string
	City        string
	Country     string
	Coordinates *Coordinates
}

// Target returns the value of the field selected by the query level.
func (q Query) Target() string {
	return Triple{District: q.District, City: q.City, Country: q.Country}.Field(q.Level)
}
