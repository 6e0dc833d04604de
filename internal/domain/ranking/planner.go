package ranking

import (
	"strings"

	"github.com/okian/racketrank/internal/domain/location"
)

// Default result caps per level.
const (
	DefaultCountryLimit = 10
	DefaultLocalLimit   = 100
)

// Field is a profile column a filter can match against.
type Field string

// Filterable profile columns. Region backs the district level.
const (
	FieldRegion  Field = "region"
	FieldCity    Field = "city"
	FieldCountry Field = "country"
)

// Filter selects rated players whose Field contains any of Patterns,
// case-insensitively, ordered by rating descending and capped at Limit.
type Filter struct {
	Field    Field
	Patterns []string
	Limit    int
}

// Matches reports whether value satisfies the filter's substring match.
func (f Filter) Matches(value string) bool {
	v := strings.ToLower(value)
	for _, p := range f.Patterns {
		if strings.Contains(v, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Option configures a Planner.
type Option func(*Planner)

// WithCountryLimit caps country leaderboards.
func WithCountryLimit(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.countryLimit = n
		}
	}
}

// WithLocalLimit caps district and city leaderboards.
func WithLocalLimit(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.localLimit = n
		}
	}
}

// Planner builds profile-store filters for location queries.
type Planner struct {
	countryLimit int
	localLimit   int
}

// NewPlanner creates a Planner with the default caps.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		countryLimit: DefaultCountryLimit,
		localLimit:   DefaultLocalLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns the filter for q. It returns false when the field targeted
// by q.Level is empty or Unknown: no query must run in that case, and the
// caller answers with an empty leaderboard.
//
// Country queries expand the normalized country into every stored
// spelling. District and city values are used as given.
func (p *Planner) Plan(q location.Query) (Filter, bool) {
	target := strings.TrimSpace(q.Target())
	if !location.IsKnown(target) {
		return Filter{}, false
	}
	switch q.Level {
	case location.LevelCountry:
		return Filter{
			Field:    FieldCountry,
			Patterns: location.Variants(location.Normalize(target)),
			Limit:    p.countryLimit,
		}, true
	case location.LevelCity:
		return Filter{Field: FieldCity, Patterns: []string{target}, Limit: p.localLimit}, true
	case location.LevelDistrict:
		return Filter{Field: FieldRegion, Patterns: []string{target}, Limit: p.localLimit}, true
	}
	return Filter{}, false
}
