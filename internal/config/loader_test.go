package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/racketrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
				convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
				convey.So(cfg.WarmCountries, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RACKETRANK_ADDR", ":8080")
			_ = os.Setenv("RACKETRANK_DATABASE_URL", "postgres://u:p@db/racketrank")
			_ = os.Setenv("RACKETRANK_CACHE_DRIVER", "redis")
			_ = os.Setenv("RACKETRANK_REDIS_ADDR", "redis:6379")
			_ = os.Setenv("RACKETRANK_REDIS_DB", "2")
			_ = os.Setenv("RACKETRANK_MIGRATE", "true")
			_ = os.Setenv("RACKETRANK_GEOCODER_RATE_PER_SEC", "0.5")
			_ = os.Setenv("RACKETRANK_WARM_COUNTRIES", "Turkey, Germany,,TR")
			_ = os.Setenv("RACKETRANK_WARM_WORKERS", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://u:p@db/racketrank")
				convey.So(cfg.CacheDriver, convey.ShouldEqual, config.CacheRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.Migrate, convey.ShouldBeTrue)
				convey.So(cfg.GeocoderRatePerSec, convey.ShouldEqual, 0.5)
				convey.So(cfg.WarmCountries, convey.ShouldResemble, []string{"Turkey", "Germany", "TR"})
				convey.So(cfg.WarmWorkers, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_driver: memory
cache_driver: memory
store_locale: en
warm_countries:
  - Turkey
  - United States
rankings_cache_ttl_minutes: 60
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACKETRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.StoreLocale, convey.ShouldEqual, "en")
				convey.So(cfg.WarmCountries, convey.ShouldResemble, []string{"Turkey", "United States"})
				convey.So(cfg.RankingsCacheTTLMinutes, convey.ShouldEqual, 60)
				convey.So(cfg.GeoCacheTTLMinutes, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
country_limit: 20
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACKETRANK_CONFIG", tmpFile)
			_ = os.Setenv("RACKETRANK_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CountryLimit, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACKETRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RACKETRANK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RACKETRANK_COUNTRY_LIMIT", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		validationCases := []struct {
			name string
			env  map[string]string
			want string
		}{
			{"empty addr", map[string]string{"RACKETRANK_ADDR": ""}, "addr must not be empty"},
			{"unknown store driver", map[string]string{"RACKETRANK_STORE_DRIVER": "mysql"}, "store_driver"},
			{"unknown cache driver", map[string]string{"RACKETRANK_CACHE_DRIVER": "memcached"}, "cache_driver"},
			{"redis without address", map[string]string{"RACKETRANK_CACHE_DRIVER": "redis"}, "redis_addr"},
			{"zero limit", map[string]string{"RACKETRANK_LOCAL_LIMIT": "0"}, "local_limit"},
			{"unknown locale", map[string]string{"RACKETRANK_STORE_LOCALE": "de"}, "store_locale"},
			{"unknown log format", map[string]string{"RACKETRANK_LOG_FORMAT": "xml"}, "log_format"},
		}
		for _, tc := range validationCases {
			convey.Convey("When loading config with "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
					convey.So(cfg, convey.ShouldBeNil)
				})
			})
		}
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "racketrank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
