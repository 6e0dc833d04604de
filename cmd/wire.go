package main

import (
	"context"
	"fmt"

	"github.com/okian/racketrank/internal/adapters/cache"
	"github.com/okian/racketrank/internal/adapters/geo"
	"github.com/okian/racketrank/internal/adapters/mq/queue"
	"github.com/okian/racketrank/internal/adapters/mq/worker"
	"github.com/okian/racketrank/internal/adapters/repository"
	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/internal/config"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "racketrank:"

// dependencies is everything run needs, built from the config.
type dependencies struct {
	Service *app.Service

	conn   *repository.Connection
	redis  *redis.Client
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	warmer *app.Warmer
	logger logger.Logger

	started bool
}

// wire opens the configured drivers and assembles the service. A postgres
// store without database_url is not an error: the service is built
// unconfigured and answers every rankings request with a configuration
// error.
func wire(ctx context.Context, cfg *config.Config, log logger.Logger) (*dependencies, error) {
	d := &dependencies{logger: log}

	if cfg.DatabaseURL != "" && (cfg.StoreDriver == config.StorePostgres || cfg.CacheDriver == config.CachePostgres) {
		conn, err := repository.NewConnectionFromURL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.conn = conn
		if cfg.Migrate {
			n, err := repository.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				d.Close()
				return nil, err
			}
			log.Info(ctx, "schema migrations applied", logger.Int("count", n))
		}
	}

	if cfg.CacheDriver == config.CacheRedis {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.redis = client
	}

	var store repository.Store
	switch {
	case cfg.StoreDriver == config.StoreMemory:
		store = repository.NewMemoryStore()
		log.Warn(ctx, "using the in-memory profile store; leaderboards start empty")
	case d.conn != nil:
		store = repository.NewPostgresStore(d.conn)
	default:
		log.Error(ctx, "profile store is not configured; set RACKETRANK_DATABASE_URL")
	}

	hintsBackend, err := d.backend(ctx, cfg, repository.CountryHintsCacheTable)
	if err != nil {
		d.Close()
		return nil, err
	}
	geoBackend, err := d.backend(ctx, cfg, repository.GeocodeCacheTable)
	if err != nil {
		d.Close()
		return nil, err
	}
	rankingsBackend, err := d.backend(ctx, cfg, repository.RankingsCacheTable)
	if err != nil {
		d.Close()
		return nil, err
	}

	hints := cache.NewLayer[string](repository.CountryHintsCacheTable, hintsBackend, cfg.CountryHintTTL())
	geocache := cache.NewLayer[location.Triple](repository.GeocodeCacheTable, geoBackend, cfg.GeoCacheTTL())
	rankings := cache.NewLayer[app.RankingsEntry](repository.RankingsCacheTable, rankingsBackend, cfg.RankingsCacheTTL())

	geocoder := geo.NewNominatimClient(
		geo.WithBaseURL(cfg.GeocoderURL),
		geo.WithUserAgent(cfg.GeocoderUserAgent),
		geo.WithTimeout(cfg.ProviderTimeout()),
		geo.WithRatePerSecond(cfg.GeocoderRatePerSec),
	)
	locator := geo.NewIPAPIClient(
		geo.WithBaseURL(cfg.IPLocatorURL),
		geo.WithUserAgent(cfg.GeocoderUserAgent),
		geo.WithTimeout(cfg.ProviderTimeout()),
	)
	resolver := app.NewGeoResolver(hints, geocache, geocoder, locator, log.Named("resolver"))

	locale, _ := location.ParseLocale(cfg.StoreLocale)
	d.Service = app.New(
		app.WithStore(store),
		app.WithRankingsCache(rankings),
		app.WithResolver(resolver),
		app.WithPlanner(ranking.NewPlanner(
			ranking.WithCountryLimit(cfg.CountryLimit),
			ranking.WithLocalLimit(cfg.LocalLimit),
		)),
		app.WithStoreLocale(locale),
		app.WithStoreTimeout(cfg.ProviderTimeout()),
		app.WithWarmAhead(cfg.WarmInterval()),
		app.WithLogger(log.Named("rankings")),
	)

	d.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.WarmQueueSize))
	d.pool = worker.NewPool(cfg.WarmWorkers, d.queue, d.Service, worker.WithTaskTimeout(cfg.ProviderTimeout()))
	d.warmer = app.NewWarmer(d.queue, cfg.WarmCountries, cfg.WarmInterval(), log.Named("warmer"))

	return d, nil
}

// backend picks the cache backend for one cache table.
func (d *dependencies) backend(ctx context.Context, cfg *config.Config, table string) (cache.Backend, error) {
	switch cfg.CacheDriver {
	case config.CacheRedis:
		return cache.NewRedisBackend(d.redis, redisKeyPrefix+table+":"), nil
	case config.CachePostgres:
		if d.conn == nil {
			d.logger.Warn(ctx, "postgres cache driver without database_url; caching in memory", logger.String("table", table))
			return cache.NewMemoryBackend(), nil
		}
		return cache.NewPostgresBackend(d.conn, table)
	default:
		return cache.NewMemoryBackend(), nil
	}
}

// Start launches the warm pool and scheduler when there is something to
// warm.
func (d *dependencies) Start(ctx context.Context) {
	if !d.Service.Configured() || len(d.warmer.Countries()) == 0 {
		return
	}
	d.pool.Start(ctx)
	d.started = true
	go d.warmer.Run(ctx)
	d.logger.Info(ctx, "leaderboard warmer started",
		logger.Any("countries", d.warmer.Countries()),
		logger.Int("workers", d.pool.Size()),
	)
}

// Shutdown stops the warm pool if Start launched it.
func (d *dependencies) Shutdown(ctx context.Context) error {
	if !d.started {
		return nil
	}
	return d.pool.Shutdown(ctx)
}

// Close releases driver connections.
func (d *dependencies) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn(context.Background(), "closing redis client", logger.Error(err))
		}
	}
	if d.conn != nil {
		d.conn.Close()
	}
}
