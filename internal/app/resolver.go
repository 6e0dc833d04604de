package app

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/racketrank/internal/adapters/cache"
	"github.com/okian/racketrank/internal/adapters/geo"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/pkg/logger"
	"github.com/okian/racketrank/pkg/metrics"
)

// Resolution sources, in the order they are tried.
const (
	SourceCountryHint = "country_hint"
	SourceGeoCache    = "geo_cache"
	SourceGeocoder    = "geocoder"
	SourceIPLocator   = "ip_locator"
	SourceUnknown     = "unknown"
)

// ReverseGeocoder turns coordinates into an address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c location.Coordinates) (geo.Address, error)
}

// IPLocator turns a client IP into an address.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (geo.Address, error)
}

// ResolveInput is what a caller knows about its location.
type ResolveInput struct {
	// Level is the granularity the caller needs; empty means all fields.
	Level       location.Level
	CountryHint string
	Coordinates *location.Coordinates
	IP          string
}

// Resolution is a resolved triple and the step that produced it.
type Resolution struct {
	location.Triple
	Source string `json:"source"`
}

// GeoResolver resolves a caller's location through the country-hint cache,
// the coordinate cache, the reverse geocoder and the IP locator, stopping
// at the first success.
type GeoResolver struct {
	hints    *cache.Layer[string]
	geocache *cache.Layer[location.Triple]
	geocoder ReverseGeocoder
	ip       IPLocator
	logger   logger.Logger
}

// NewGeoResolver wires a resolver. Any collaborator may be nil, in which
// case its step is skipped; a nil log falls back to the global logger.
func NewGeoResolver(
	hints *cache.Layer[string],
	geocache *cache.Layer[location.Triple],
	geocoder ReverseGeocoder,
	ip IPLocator,
	log logger.Logger,
) *GeoResolver {
	if log == nil {
		log = logger.Get().Named("resolver")
	}
	return &GeoResolver{hints: hints, geocache: geocache, geocoder: geocoder, ip: ip, logger: log}
}

// Resolve never fails: provider and cache errors are logged and the next
// step is tried. The result has every field set, Unknown where nothing
// could be resolved.
func (r *GeoResolver) Resolve(ctx context.Context, in ResolveInput) Resolution {
	if res, ok := r.fromHint(ctx, in); ok {
		return r.done(res)
	}

	if in.Coordinates != nil {
		if res, ok := r.fromGeoCache(ctx, *in.Coordinates); ok {
			return r.done(res)
		}
		if res, ok := r.fromGeocoder(ctx, *in.Coordinates); ok {
			return r.done(res)
		}
	}

	if res, ok := r.fromIP(ctx, in.IP); ok {
		return r.done(res)
	}

	return r.done(Resolution{Triple: location.UnknownTriple(), Source: SourceUnknown})
}

func (r *GeoResolver) done(res Resolution) Resolution {
	res.Triple = res.Triple.Complete()
	metrics.RecordResolution(res.Source)
	return res
}

// fromHint short-circuits when the caller already knows its country and
// the hint was seen recently. It only applies when nothing finer than the
// country can be learned, or only the country is needed.
func (r *GeoResolver) fromHint(ctx context.Context, in ResolveInput) (Resolution, bool) {
	if r.hints == nil || !location.IsKnown(in.CountryHint) {
		return Resolution{}, false
	}
	if in.Coordinates != nil && in.Level != location.LevelCountry {
		return Resolution{}, false
	}

	canonical := location.Normalize(in.CountryHint)
	e, ok, err := r.hints.GetFresh(ctx, canonical)
	if err != nil {
		r.logger.Warn(ctx, "country hint cache read failed", logger.String("country", canonical), logger.Error(err))
		return Resolution{}, false
	}
	if !ok {
		return Resolution{}, false
	}
	r.logger.Debug(ctx, "country hint cache hit", logger.String("country", e.Value))
	return Resolution{
		Triple: location.Triple{District: location.Unknown, City: location.Unknown, Country: e.Value},
		Source: SourceCountryHint,
	}, true
}

func (r *GeoResolver) fromGeoCache(ctx context.Context, c location.Coordinates) (Resolution, bool) {
	if r.geocache == nil {
		return Resolution{}, false
	}
	e, ok, err := r.geocache.GetFresh(ctx, c.Key())
	if err != nil {
		r.logger.Warn(ctx, "geocode cache read failed", logger.String("key", c.Key()), logger.Error(err))
		return Resolution{}, false
	}
	if !ok {
		r.logger.Debug(ctx, "geocode cache miss", logger.String("key", c.Key()))
		return Resolution{}, false
	}
	r.logger.Debug(ctx, "geocode cache hit", logger.String("key", c.Key()))
	return Resolution{Triple: e.Value, Source: SourceGeoCache}, true
}

func (r *GeoResolver) fromGeocoder(ctx context.Context, c location.Coordinates) (Resolution, bool) {
	if r.geocoder == nil {
		return Resolution{}, false
	}
	addr, err := r.geocoder.Reverse(ctx, c)
	if err != nil {
		r.logger.Warn(ctx, "reverse geocoding failed", logger.String("key", c.Key()), logger.Error(err))
		return Resolution{}, false
	}

	t := toTriple(addr)
	if r.geocache != nil {
		if _, err := r.geocache.Upsert(ctx, c.Key(), t); err != nil {
			r.logger.Warn(ctx, "geocode cache write failed", logger.String("key", c.Key()), logger.Error(err))
		}
	}
	r.rememberCountry(ctx, t.Country)
	return Resolution{Triple: t, Source: SourceGeocoder}, true
}

func (r *GeoResolver) fromIP(ctx context.Context, ip string) (Resolution, bool) {
	if r.ip == nil || strings.TrimSpace(ip) == "" {
		return Resolution{}, false
	}
	addr, err := r.ip.Locate(ctx, ip)
	if err != nil {
		if errors.Is(err, geo.ErrNotRoutable) {
			r.logger.Debug(ctx, "client address is not routable; skipping ip location", logger.String("ip", ip))
			return Resolution{}, false
		}
		r.logger.Warn(ctx, "ip location failed", logger.Error(err))
		return Resolution{}, false
	}

	return Resolution{Triple: toTriple(addr), Source: SourceIPLocator}, true
}

// rememberCountry records a geocoded country so later hints for it can
// short-circuit resolution. IP results are never cached.
func (r *GeoResolver) rememberCountry(ctx context.Context, country string) {
	if r.hints == nil || !location.IsKnown(country) {
		return
	}
	if _, err := r.hints.Upsert(ctx, country, country); err != nil {
		r.logger.Warn(ctx, "country hint cache write failed", logger.String("country", country), logger.Error(err))
	}
}

func toTriple(a geo.Address) location.Triple {
	return location.Triple{
		District: strings.TrimSpace(a.District),
		City:     strings.TrimSpace(a.City),
		Country:  location.Normalize(a.Country),
	}.Complete()
}
