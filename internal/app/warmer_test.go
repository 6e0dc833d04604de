package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/racketrank/internal/adapters/mq/queue"
	"github.com/okian/racketrank/internal/adapters/mq/worker"
	"github.com/okian/racketrank/internal/app"
	"github.com/okian/racketrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWarmer(t *testing.T) {
	Convey("Given a warmer over a small queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		w := app.NewWarmer(q, []string{"türkiye", "TR", "Germany", "", "Unknown", "France"}, 0, logger.Get())

		Convey("Then the list is normalized and deduplicated", func() {
			So(w.Countries(), ShouldResemble, []string{"Turkey", "Germany", "France"})
		})

		Convey("When everything is enqueued", func() {
			accepted := w.EnqueueAll(ctx, app.ReasonStartup)

			Convey("Then tasks beyond capacity are dropped", func() {
				So(accepted, ShouldEqual, 2)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And enqueued again before they ran", func() {
				So(w.EnqueueAll(ctx, app.ReasonSchedule), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a warmer feeding a worker pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := newServiceFixture()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		pool := worker.NewPool(2, q, f.svc)
		pool.Start(ctx)

		w := app.NewWarmer(q, []string{"Turkey", "Germany"}, time.Hour, logger.Get())
		go w.Run(ctx)

		Convey("Then the country leaderboards end up cached", func() {
			deadline := time.Now().Add(2 * time.Second)
			for f.rankingsBE.Len() < 2 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(f.rankingsBE.Len(), ShouldEqual, 2)

			res, err := f.svc.GetRankings(context.Background(), app.RankingsRequest{Level: "country", Country: "Germany"})
			So(err, ShouldBeNil)
			So(res.Cached, ShouldBeTrue)
		})
	})
}
