// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file, then
// RACKETRANK_* environment variables.
package config

import (
	"context"
	"time"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Cache drivers.
const (
	CachePostgres = "postgres"
	CacheRedis    = "redis"
	CacheMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// DatabaseURL is the PostgreSQL DSN for the profile store and the
	// postgres cache driver. Empty leaves the store unconfigured.
	DatabaseURL string `koanf:"database_url"`
	StoreDriver string `koanf:"store_driver"`
	CacheDriver string `koanf:"cache_driver"`
	// Migrate applies the embedded schema migrations at startup.
	Migrate bool `koanf:"migrate"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	GeocoderURL        string  `koanf:"geocoder_url"`
	GeocoderUserAgent  string  `koanf:"geocoder_user_agent"`
	GeocoderRatePerSec float64 `koanf:"geocoder_rate_per_sec"`
	IPLocatorURL       string  `koanf:"iplocator_url"`
	ProviderTimeoutMS  int     `koanf:"provider_timeout_ms"`

	GeoCacheTTLMinutes      int `koanf:"geo_cache_ttl_minutes"`
	RankingsCacheTTLMinutes int `koanf:"rankings_cache_ttl_minutes"`
	CountryHintTTLMinutes   int `koanf:"country_hint_ttl_minutes"`

	CountryLimit int `koanf:"country_limit"`
	LocalLimit   int `koanf:"local_limit"`

	// StoreLocale is how the profile store spells countries: tr or en.
	StoreLocale string `koanf:"store_locale"`

	// WarmCountries are kept hot in the rankings cache. From the
	// environment they are given comma separated.
	WarmCountries       []string `koanf:"warm_countries"`
	WarmIntervalMinutes int      `koanf:"warm_interval_minutes"`
	WarmWorkers         int      `koanf:"warm_workers"`
	WarmQueueSize       int      `koanf:"warm_queue_size"`
}

// New creates a Config with defaults. The context is reserved for future
// use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":3000",
		StoreDriver:             StorePostgres,
		CacheDriver:             CachePostgres,
		GeocoderURL:             "https://nominatim.openstreetmap.org",
		GeocoderUserAgent:       "RacketRank/1.0",
		GeocoderRatePerSec:      1,
		IPLocatorURL:            "https://ipapi.co",
		ProviderTimeoutMS:       10_000,
		GeoCacheTTLMinutes:      120,
		RankingsCacheTTLMinutes: 120,
		CountryHintTTLMinutes:   1440,
		CountryLimit:            10,
		LocalLimit:              100,
		StoreLocale:             "tr",
		WarmIntervalMinutes:     30,
		WarmWorkers:             2,
		WarmQueueSize:           64,
	}
}

// ProviderTimeout bounds each reverse-geocode and IP-locate call.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMS) * time.Millisecond
}

// GeoCacheTTL is the lifetime of a coordinate cache entry.
func (c *Config) GeoCacheTTL() time.Duration {
	return time.Duration(c.GeoCacheTTLMinutes) * time.Minute
}

// RankingsCacheTTL is the lifetime of a country leaderboard cache entry.
func (c *Config) RankingsCacheTTL() time.Duration {
	return time.Duration(c.RankingsCacheTTLMinutes) * time.Minute
}

// CountryHintTTL is the lifetime of a country hint cache entry.
func (c *Config) CountryHintTTL() time.Duration {
	return time.Duration(c.CountryHintTTLMinutes) * time.Minute
}

// WarmInterval is the period between warm rounds.
func (c *Config) WarmInterval() time.Duration {
	return time.Duration(c.WarmIntervalMinutes) * time.Minute
}

// StoreConfigured reports whether the profile store can be opened. A
// postgres store without a DSN is a configuration error reported per
// request, not a startup failure.
func (c *Config) StoreConfigured() bool {
	return c.StoreDriver == StoreMemory || c.DatabaseURL != ""
}
