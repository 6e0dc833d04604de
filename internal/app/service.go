// Package app implements the leaderboard use cases on top of the location,
// ranking and cache building blocks.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/racketrank/internal/adapters/cache"
	"github.com/okian/racketrank/internal/adapters/repository"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/logger"
	"github.com/okian/racketrank/pkg/metrics"
)

// maxSampleValues caps each list in the empty-result diagnostics.
const maxSampleValues = 5

// RankingsEntry is the payload of the country rankings cache.
type RankingsEntry struct {
	Country         string           `json:"country"`
	CountryVariants []string         `json:"country_variants"`
	Rankings        []ranking.Player `json:"rankings"`
	PlayerCount     int              `json:"player_count"`
}

// RankingsRequest describes one leaderboard request. Location fields are
// caller hints and may be empty or Unknown.
type RankingsRequest struct {
	Level       location.Level
	District    string
	City        string
	Country     string
	Coordinates *location.Coordinates
	IP          string
}

// RankingsResult is a served leaderboard.
type RankingsResult struct {
	Level    location.Level
	Location location.Triple
	ranking.Result
	Cached bool
	// CacheAge is whole seconds since the cache entry was written; only
	// meaningful when Cached is set.
	CacheAge int64
}

// Service serves location-scoped leaderboards.
type Service struct {
	store    repository.Store
	rankings *cache.Layer[RankingsEntry]
	resolver *GeoResolver
	planner  *ranking.Planner
	locale   location.Locale
	now      func() time.Time
	ahead    time.Duration
	timeout  time.Duration
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the profile store. Without one every request fails with
// ErrNotConfigured.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRankingsCache sets the country rankings cache.
func WithRankingsCache(layer *cache.Layer[RankingsEntry]) Option {
	return func(s *Service) {
		s.rankings = layer
	}
}

// WithResolver sets the location resolver.
func WithResolver(r *GeoResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithPlanner sets the query planner.
func WithPlanner(p *ranking.Planner) Option {
	return func(s *Service) {
		if p != nil {
			s.planner = p
		}
	}
}

// WithStoreLocale sets how the profile store spells country names.
func WithStoreLocale(l location.Locale) Option {
	return func(s *Service) {
		if l != "" {
			s.locale = l
		}
	}
}

// WithClock replaces time.Now, used for cache ages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWarmAhead makes Warm refresh cached leaderboards that expire within d.
func WithWarmAhead(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ahead = d
		}
	}
}

// WithStoreTimeout bounds each profile store query.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. The logger must be initialized unless
// WithLogger is given.
func New(opts ...Option) *Service {
	s := &Service{
		planner: ranking.NewPlanner(),
		locale:  location.LocaleTurkish,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("rankings")
	}
	if s.resolver == nil {
		s.resolver = NewGeoResolver(nil, nil, nil, nil, s.logger)
	}
	return s
}

// Configured reports whether a profile store is wired.
func (s *Service) Configured() bool { return s.store != nil }

// Resolve exposes the GeoResolver for the location endpoint.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) Resolution {
	return s.resolver.Resolve(ctx, in)
}

// GetRankings serves a leaderboard for req.
//
// Input is validated before any I/O. Country leaderboards are served from
// the rankings cache when fresh and cached after a non-empty store read;
// district and city leaderboards always read the store. A location that
// resolves to Unknown yields an empty leaderboard, not an error.
func (s *Service) GetRankings(ctx context.Context, req RankingsRequest) (RankingsResult, error) {
	if err := validate(req); err != nil {
		metrics.RecordRankingsError(string(req.Level), "invalid_input")
		return RankingsResult{}, err
	}
	if !s.Configured() {
		metrics.RecordRankingsError(string(req.Level), "not_configured")
		s.logger.Error(ctx, "rankings requested but the profile store is not configured")
		return RankingsResult{}, ErrNotConfigured
	}

	var (
		res RankingsResult
		err error
	)
	if req.Level == location.LevelCountry {
		res, err = s.countryRankings(ctx, req)
	} else {
		res, err = s.localRankings(ctx, req)
	}
	if err != nil {
		metrics.RecordRankingsError(string(req.Level), "store")
		return RankingsResult{}, err
	}
	metrics.RecordRankingsServed(string(req.Level), res.Cached)
	return res, nil
}

func validate(req RankingsRequest) error {
	if _, err := location.ParseLevel(string(req.Level)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hint := location.Triple{District: req.District, City: req.City, Country: req.Country}.Field(req.Level)
	if !location.IsKnown(hint) && req.Coordinates == nil {
		return fmt.Errorf("%w: %s is required and cannot be %q", ErrInvalidInput, req.Level, location.Unknown)
	}
	return nil
}

func (s *Service) countryRankings(ctx context.Context, req RankingsRequest) (RankingsResult, error) {
	where := location.Triple{District: req.District, City: req.City, Country: s.canonicalCountry(ctx, req.Country)}.Complete()
	if !location.IsKnown(req.Country) {
		res := s.resolver.Resolve(ctx, ResolveInput{
			Level:       location.LevelCountry,
			Coordinates: req.Coordinates,
			IP:          req.IP,
		})
		where = res.Triple
	}
	out := RankingsResult{Level: location.LevelCountry, Location: where, Result: ranking.Interpret(nil)}
	if !location.IsKnown(where.Country) {
		return out, nil
	}
	return s.RefreshCountry(ctx, where.Country, 0, out)
}

// RefreshCountry serves the country leaderboard for canonical. A cached
// entry is returned when it stays fresh for at least minRemaining;
// otherwise the store is read and, if anything matched, the cache is
// rewritten. base carries the location to report.
func (s *Service) RefreshCountry(ctx context.Context, canonical string, minRemaining time.Duration, base RankingsResult) (RankingsResult, error) {
	base.Level = location.LevelCountry
	if s.rankings != nil {
		e, ok, err := s.rankings.GetFresh(ctx, canonical)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "rankings cache read failed", logger.String("country", canonical), logger.Error(err))
		case ok && e.ExpiresAt.Sub(s.now()) > minRemaining:
			age := e.Age(s.now())
			s.logger.Debug(ctx, "rankings cache hit", logger.String("country", canonical), logger.Int("age_seconds", int(age)))
			base.Result = ranking.Interpret(e.Value.Rankings)
			base.Cached = true
			base.CacheAge = age
			return base, nil
		default:
			s.logger.Debug(ctx, "rankings cache miss", logger.String("country", canonical))
		}
	}

	f, ok := s.planner.Plan(location.Query{Level: location.LevelCountry, Country: canonical})
	if !ok {
		base.Result = ranking.Interpret(nil)
		return base, nil
	}
	f.Patterns = withStoreSpelling(f.Patterns, location.StoreSpelling(s.locale, canonical))

	rows, err := s.query(ctx, f)
	if err != nil {
		return RankingsResult{}, err
	}
	base.Result = ranking.Interpret(rows)

	if base.Count > 0 && s.rankings != nil {
		entry := RankingsEntry{
			Country:         canonical,
			CountryVariants: f.Patterns,
			Rankings:        base.Data,
			PlayerCount:     base.Count,
		}
		if _, err := s.rankings.Upsert(ctx, canonical, entry); err != nil {
			s.logger.Warn(ctx, "rankings cache write failed", logger.String("country", canonical), logger.Error(err))
		}
	}
	return base, nil
}

// Warm refreshes the cached leaderboard of country unless the cached one
// stays fresh beyond the warm-ahead window.
func (s *Service) Warm(ctx context.Context, country string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if !location.IsKnown(country) {
		return fmt.Errorf("%w: country %q", ErrInvalidInput, country)
	}
	canonical := s.canonicalCountry(ctx, country)
	base := RankingsResult{Location: location.Triple{Country: canonical}.Complete()}
	res, err := s.RefreshCountry(ctx, canonical, s.ahead, base)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "leaderboard warmed",
		logger.String("country", canonical),
		logger.Bool("cached", res.Cached),
		logger.Int("count", res.Count),
	)
	return nil
}

func (s *Service) localRankings(ctx context.Context, req RankingsRequest) (RankingsResult, error) {
	where := location.Triple{District: req.District, City: req.City, Country: req.Country}
	hinted := location.IsKnown(where.Field(req.Level))
	if !hinted && req.Coordinates != nil {
		res := s.resolver.Resolve(ctx, ResolveInput{
			Level:       req.Level,
			CountryHint: req.Country,
			Coordinates: req.Coordinates,
			IP:          req.IP,
		})
		where = fillMissing(where, res.Triple)
	}
	where = where.Complete()
	if location.IsKnown(where.Country) {
		where.Country = s.storeCountry(ctx, where.Country)
	}

	out := RankingsResult{Level: req.Level, Location: where}
	f, ok := s.planner.Plan(location.Query{
		Level:    req.Level,
		District: where.District,
		City:     where.City,
		Country:  where.Country,
	})
	if !ok {
		out.Result = ranking.Interpret(nil)
		return out, nil
	}

	rows, err := s.query(ctx, f)
	if err != nil {
		return RankingsResult{}, err
	}
	out.Result = ranking.Interpret(rows)
	return out, nil
}

// canonicalCountry normalizes raw. Names outside the curated synonym
// groups only get their case fixed, so they are flagged as low confidence.
func (s *Service) canonicalCountry(ctx context.Context, raw string) string {
	canonical := location.Normalize(raw)
	if location.IsKnown(canonical) && !location.IsCanonical(canonical) {
		metrics.RecordUncuratedCountry()
		s.logger.Debug(ctx, "country has no curated spellings; matching it verbatim",
			logger.String("country", raw),
			logger.String("normalized", canonical),
		)
	}
	return canonical
}

// storeCountry is raw as the profile store spells it. An uncurated name
// with no store spelling keeps the caller's own form.
func (s *Service) storeCountry(ctx context.Context, raw string) string {
	canonical := s.canonicalCountry(ctx, raw)
	spelling := location.StoreSpelling(s.locale, canonical)
	if spelling == canonical && !location.IsCanonical(canonical) {
		return strings.TrimSpace(raw)
	}
	return spelling
}

func (s *Service) query(ctx context.Context, f ranking.Filter) ([]ranking.Player, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	rows, err := s.store.TopRated(ctx, f)
	if err != nil {
		s.logger.Error(ctx, "profile store query failed",
			logger.String("field", string(f.Field)),
			logger.Any("patterns", f.Patterns),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreQuery, err)
	}
	if len(rows) == 0 {
		s.logEmpty(ctx, f)
	}
	return rows, nil
}

// logEmpty logs what the store actually holds when a filter matched
// nothing, which is almost always a spelling mismatch.
func (s *Service) logEmpty(ctx context.Context, f ranking.Filter) {
	samples, err := s.store.SampleLocations(ctx, repository.DiagnosticSampleSize)
	if err != nil {
		s.logger.Debug(ctx, "location sample failed", logger.Error(err))
		return
	}
	var regions, cities, countries []string
	for _, ls := range samples {
		regions = append(regions, ls.Region)
		cities = append(cities, ls.City)
		countries = append(countries, ls.Country)
	}
	s.logger.Debug(ctx, "no rated players matched filter",
		logger.String("field", string(f.Field)),
		logger.Any("patterns", f.Patterns),
		logger.Any("stored_regions", distinct(regions, maxSampleValues)),
		logger.Any("stored_cities", distinct(cities, maxSampleValues)),
		logger.Any("stored_countries", distinct(countries, maxSampleValues)),
	)
}

func withStoreSpelling(patterns []string, spelling string) []string {
	for _, p := range patterns {
		if strings.EqualFold(p, spelling) {
			return patterns
		}
	}
	return append(patterns, spelling)
}

func fillMissing(t, from location.Triple) location.Triple {
	if !location.IsKnown(t.District) {
		t.District = from.District
	}
	if !location.IsKnown(t.City) {
		t.City = from.City
	}
	if !location.IsKnown(t.Country) {
		t.Country = from.Country
	}
	return t
}

// distinct returns up to n distinct non-empty values, sorted.
func distinct(values []string, n int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, n)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// IsClientError reports whether err should be answered with a 400.
func IsClientError(err error) bool { return errors.Is(err, ErrInvalidInput) }
