package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/racketrank/internal/domain/location"
)

// Environment knobs.
const (
	EnvPrefix     = "RACKETRANK_"
	EnvConfigPath = "RACKETRANK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if RACKETRANK_CONFIG is set
//  3. env (prefix RACKETRANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// RACKETRANK_WARM_WORKERS -> warm_workers. Underscores are kept to
	// match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.WarmCountries = splitList(cfg.WarmCountries)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StorePostgres && c.StoreDriver != StoreMemory:
		return fmt.Errorf("%w: store_driver %q, want postgres or memory", ErrInvalidConfig, c.StoreDriver)
	case c.CacheDriver != CachePostgres && c.CacheDriver != CacheRedis && c.CacheDriver != CacheMemory:
		return fmt.Errorf("%w: cache_driver %q, want postgres, redis or memory", ErrInvalidConfig, c.CacheDriver)
	case c.CacheDriver == CacheRedis && strings.TrimSpace(c.RedisAddr) == "":
		return fmt.Errorf("%w: redis cache driver requires redis_addr", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q, want text or json", ErrInvalidConfig, c.LogFormat)
	case c.CountryLimit <= 0 || c.LocalLimit <= 0:
		return fmt.Errorf("%w: country_limit and local_limit must be positive", ErrInvalidConfig)
	case c.ProviderTimeoutMS <= 0:
		return fmt.Errorf("%w: provider_timeout_ms must be positive", ErrInvalidConfig)
	case c.GeoCacheTTLMinutes <= 0 || c.RankingsCacheTTLMinutes <= 0 || c.CountryHintTTLMinutes <= 0:
		return fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidConfig)
	case c.GeocoderRatePerSec <= 0:
		return fmt.Errorf("%w: geocoder_rate_per_sec must be positive", ErrInvalidConfig)
	case c.WarmWorkers <= 0 || c.WarmQueueSize <= 0:
		return fmt.Errorf("%w: warm_workers and warm_queue_size must be positive", ErrInvalidConfig)
	}
	if _, ok := location.ParseLocale(c.StoreLocale); !ok {
		return fmt.Errorf("%w: store_locale %q, want tr or en", ErrInvalidConfig, c.StoreLocale)
	}
	return nil
}

// splitList expands comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
