package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/racketrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StorePostgres)
			convey.So(cfg.CacheDriver, convey.ShouldEqual, config.CachePostgres)
			convey.So(cfg.CountryLimit, convey.ShouldEqual, 10)
			convey.So(cfg.LocalLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StoreLocale, convey.ShouldEqual, "tr")
			convey.So(cfg.GeocoderUserAgent, convey.ShouldEqual, "RacketRank/1.0")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the durations match the reference TTLs", func() {
			convey.So(cfg.ProviderTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.GeoCacheTTL(), convey.ShouldEqual, 2*time.Hour)
			convey.So(cfg.RankingsCacheTTL(), convey.ShouldEqual, 2*time.Hour)
			convey.So(cfg.CountryHintTTL(), convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.WarmInterval(), convey.ShouldEqual, 30*time.Minute)
		})

		convey.Convey("Then a postgres store without a DSN is not configured", func() {
			convey.So(cfg.StoreConfigured(), convey.ShouldBeFalse)
			cfg.DatabaseURL = "postgres://localhost/racketrank"
			convey.So(cfg.StoreConfigured(), convey.ShouldBeTrue)
		})

		convey.Convey("Then the memory store needs no DSN", func() {
			cfg.StoreDriver = config.StoreMemory
			convey.So(cfg.StoreConfigured(), convey.ShouldBeTrue)
		})
	})
}
