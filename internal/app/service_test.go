package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/racketrank/internal/adapters/cache"
	"github.com/okian/racketrank/internal/adapters/geo"
	"github.com/okian/racketrank/internal/adapters/repository"
	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type serviceFixture struct {
	*resolverFixture
	store      *repository.MemoryStore
	rankingsBE *cache.MemoryBackend
	svc        *app.Service
}

func newServiceFixture(opts ...app.Option) *serviceFixture {
	rf := newResolverFixture()
	f := &serviceFixture{
		resolverFixture: rf,
		store:           repository.NewMemoryStore(samplePlayers()...),
		rankingsBE:      cache.NewMemoryBackend(),
	}
	layer := cache.NewLayer[app.RankingsEntry]("rankings", f.rankingsBE, 2*time.Hour, cache.WithClock(rf.clock.Now))
	base := []app.Option{
		app.WithStore(f.store),
		app.WithRankingsCache(layer),
		app.WithResolver(rf.resolver),
		app.WithClock(rf.clock.Now),
		app.WithLogger(logger.Get()),
	}
	f.svc = app.New(append(base, opts...)...)
	return f
}

func ids(players []ranking.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

func TestService_CountryRankings(t *testing.T) {
	Convey("Given an empty rankings cache", t, func() {
		ctx := context.Background()
		f := newServiceFixture()

		Convey("When the Turkey leaderboard is requested with a local spelling", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "türkiye"})

			Convey("Then every stored spelling is matched and ordered by rating", func() {
				So(err, ShouldBeNil)
				So(res.Location.Country, ShouldEqual, "Turkey")
				So(ids(res.Data), ShouldResemble, []string{"2", "1"})
				So(res.Count, ShouldEqual, 2)
				So(res.Cached, ShouldBeFalse)
				So(f.store.Queries(), ShouldEqual, 1)
			})

			Convey("Then the result is cached under the canonical country", func() {
				So(f.rankingsBE.Len(), ShouldEqual, 1)
				layer := cache.NewLayer[app.RankingsEntry]("rankings", f.rankingsBE, 2*time.Hour, cache.WithClock(f.clock.Now))
				e, ok, err := layer.GetFresh(ctx, "Turkey")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(e.Value.PlayerCount, ShouldEqual, 2)
				So(e.Value.CountryVariants, ShouldContain, "Turkiye")
				So(e.Value.CountryVariants, ShouldContain, "Türkiye")
				So(e.ExpiresAt.Sub(e.UpdatedAt), ShouldEqual, 2*time.Hour)
			})

			Convey("And it is requested again 30 minutes later", func() {
				f.clock.Advance(30 * time.Minute)
				again, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "TR"})

				Convey("Then the cached leaderboard is served without a store query", func() {
					So(err, ShouldBeNil)
					So(again.Cached, ShouldBeTrue)
					So(again.CacheAge, ShouldEqual, 1800)
					So(ids(again.Data), ShouldResemble, []string{"2", "1"})
					So(f.store.Queries(), ShouldEqual, 1)
				})
			})

			Convey("And it is requested again after the entry expired", func() {
				f.clock.Advance(2 * time.Hour)
				again, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "Turkey"})

				Convey("Then the store is queried again", func() {
					So(err, ShouldBeNil)
					So(again.Cached, ShouldBeFalse)
					So(f.store.Queries(), ShouldEqual, 2)
				})
			})
		})

		Convey("When a country without rated players is requested", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "France"})

			Convey("Then an empty leaderboard is returned and nothing is cached", func() {
				So(err, ShouldBeNil)
				So(res.Count, ShouldEqual, 0)
				So(res.Data, ShouldNotBeNil)
				So(res.Data, ShouldBeEmpty)
				So(f.rankingsBE.Len(), ShouldEqual, 0)
			})

			Convey("And a rated player appears later", func() {
				f.store.Add(ranking.Player{ID: "9", Rating: rating(1200), Country: "France"})
				again, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "France"})

				Convey("Then the player is served immediately", func() {
					So(err, ShouldBeNil)
					So(ids(again.Data), ShouldResemble, []string{"9"})
				})
			})
		})

		Convey("When the country is Unknown", func() {
			_, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "Unknown"})

			Convey("Then it is a client error and no I/O happens", func() {
				So(errors.Is(err, app.ErrInvalidInput), ShouldBeTrue)
				So(app.IsClientError(err), ShouldBeTrue)
				So(f.store.Queries(), ShouldEqual, 0)
				So(f.geocoder.Calls(), ShouldEqual, 0)
			})
		})

		Convey("When the country has no curated spellings", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "atlantis"})

			Convey("Then it is matched under its re-cased name", func() {
				So(err, ShouldBeNil)
				So(res.Location.Country, ShouldEqual, "Atlantis")
				So(res.Count, ShouldEqual, 0)
				So(f.store.Queries(), ShouldEqual, 1)
			})
		})

		Convey("When only coordinates are given", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Coordinates: coords("40.9901", "29.0292")})

			Convey("Then the country is resolved and served", func() {
				So(err, ShouldBeNil)
				So(res.Location.Country, ShouldEqual, "Turkey")
				So(res.Count, ShouldEqual, 2)
			})
		})
	})
}

func TestService_LocalRankings(t *testing.T) {
	Convey("Given a service backed by a Turkish-spelled store", t, func() {
		ctx := context.Background()
		f := newServiceFixture()

		Convey("When a city leaderboard is requested by name", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCity, City: "istanbul", Country: "Turkey"})

			Convey("Then the caller's values are used without resolution", func() {
				So(err, ShouldBeNil)
				So(ids(res.Data), ShouldResemble, []string{"1"})
				So(res.Location.Country, ShouldEqual, "Turkiye")
				So(res.Cached, ShouldBeFalse)
				So(f.geocoder.Calls(), ShouldEqual, 0)
			})

			Convey("Then nothing is cached", func() {
				So(f.rankingsBE.Len(), ShouldEqual, 0)
			})
		})

		Convey("When identical coordinates are used twice for a district", func() {
			req := app.RankingsRequest{Level: location.LevelDistrict, Coordinates: coords("40.9901", "29.0292")}
			first, err1 := f.svc.GetRankings(ctx, req)
			second, err2 := f.svc.GetRankings(ctx, req)

			Convey("Then the second request costs no provider call", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(f.geocoder.Calls(), ShouldEqual, 1)
				So(first.Location, ShouldResemble, location.Triple{District: "Kadikoy", City: "Istanbul", Country: "Turkiye"})
				So(ids(second.Data), ShouldResemble, []string{"1"})
				So(f.store.Queries(), ShouldEqual, 2)
			})
		})

		Convey("When the geocoder is down and no IP is known", func() {
			f.geocoder.err = geo.ErrProviderStatus
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCity, Coordinates: coords("1", "2")})

			Convey("Then an empty leaderboard is served without querying", func() {
				So(err, ShouldBeNil)
				So(res.Count, ShouldEqual, 0)
				So(res.Data, ShouldNotBeNil)
				So(res.Location, ShouldResemble, location.UnknownTriple())
				So(f.store.Queries(), ShouldEqual, 0)
			})
		})

		Convey("When the country has no curated spellings and no store spelling", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCity, City: "Poseidonia", Country: " ATLANTIS "})

			Convey("Then the caller's spelling is reported instead of a re-cased guess", func() {
				So(err, ShouldBeNil)
				So(res.Location.Country, ShouldEqual, "ATLANTIS")
				So(res.Count, ShouldEqual, 0)
			})
		})

		Convey("When an uncurated country still has a store spelling", func() {
			res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCity, City: "Auckland", Country: "NEW zealand"})

			Convey("Then the store spelling is used", func() {
				So(err, ShouldBeNil)
				So(res.Location.Country, ShouldEqual, "Yeni Zelanda")
			})
		})

		Convey("When the city is neither given nor resolvable", func() {
			_, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCity, Country: "Turkey"})

			Convey("Then it is a client error", func() {
				So(errors.Is(err, app.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with an English store locale", t, func() {
		f := newServiceFixture(app.WithStoreLocale(location.LocaleEnglish))

		Convey("Then the country is passed through in English", func() {
			res, err := f.svc.GetRankings(context.Background(), app.RankingsRequest{Level: location.LevelCity, City: "Berlin", Country: "Germany"})
			So(err, ShouldBeNil)
			So(res.Location.Country, ShouldEqual, "Germany")
			So(ids(res.Data), ShouldResemble, []string{"3"})
		})
	})
}

func TestService_Errors(t *testing.T) {
	Convey("Given request validation", t, func() {
		f := newServiceFixture()

		Convey("Then an unknown level is rejected", func() {
			_, err := f.svc.GetRankings(context.Background(), app.RankingsRequest{Level: "planet", Country: "Turkey"})
			So(errors.Is(err, app.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given a service without a profile store", t, func() {
		svc := app.New(app.WithLogger(logger.Get()))

		Convey("Then valid requests fail as not configured", func() {
			So(svc.Configured(), ShouldBeFalse)
			_, err := svc.GetRankings(context.Background(), app.RankingsRequest{Level: location.LevelCountry, Country: "Turkey"})
			So(errors.Is(err, app.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then invalid requests are still client errors", func() {
			_, err := svc.GetRankings(context.Background(), app.RankingsRequest{Level: location.LevelCountry, Country: ""})
			So(errors.Is(err, app.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given a failing profile store", t, func() {
		svc := app.New(app.WithStore(failingStore{}), app.WithLogger(logger.Get()))

		Convey("Then the store error is surfaced", func() {
			_, err := svc.GetRankings(context.Background(), app.RankingsRequest{Level: location.LevelCountry, Country: "Turkey"})
			So(errors.Is(err, app.ErrStoreQuery), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")
		})
	})
}

func TestService_Warm(t *testing.T) {
	Convey("Given a service that warms 30 minutes ahead", t, func() {
		ctx := context.Background()
		f := newServiceFixture(app.WithWarmAhead(30 * time.Minute))

		So(f.svc.Warm(ctx, "TR"), ShouldBeNil)
		So(f.store.Queries(), ShouldEqual, 1)

		Convey("When warmed again while the entry is still well within its TTL", func() {
			f.clock.Advance(time.Hour)
			So(f.svc.Warm(ctx, "Turkey"), ShouldBeNil)

			Convey("Then no store query is issued", func() {
				So(f.store.Queries(), ShouldEqual, 1)
			})
		})

		Convey("When warmed again close to expiry", func() {
			f.clock.Advance(100 * time.Minute)
			So(f.svc.Warm(ctx, "Turkey"), ShouldBeNil)

			Convey("Then the entry is refreshed", func() {
				So(f.store.Queries(), ShouldEqual, 2)
				res, err := f.svc.GetRankings(ctx, app.RankingsRequest{Level: location.LevelCountry, Country: "Turkey"})
				So(err, ShouldBeNil)
				So(res.Cached, ShouldBeTrue)
				So(res.CacheAge, ShouldEqual, 0)
			})
		})

		Convey("When an Unknown country is warmed", func() {
			So(errors.Is(f.svc.Warm(ctx, "Unknown"), app.ErrInvalidInput), ShouldBeTrue)
		})
	})
}
