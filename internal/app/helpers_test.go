package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/racketrank/internal/adapters/geo"
	"github.com/okian/racketrank/internal/adapters/repository"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeGeocoder struct {
	mu    sync.Mutex
	addr  geo.Address
	err   error
	calls int
}

func (f *fakeGeocoder) Reverse(_ context.Context, _ location.Coordinates) (geo.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.addr, f.err
}

func (f *fakeGeocoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocator struct {
	mu    sync.Mutex
	addr  geo.Address
	err   error
	calls int
	ips   []string
}

func (f *fakeLocator) Locate(_ context.Context, ip string) (geo.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ips = append(f.ips, ip)
	return f.addr, f.err
}

func (f *fakeLocator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) TopRated(context.Context, ranking.Filter) ([]ranking.Player, error) {
	return nil, errStoreDown
}

func (failingStore) SampleLocations(context.Context, int) ([]repository.LocationSample, error) {
	return nil, errStoreDown
}

func rating(v float64) *float64 { return &v }

func coords(lat, lng string) *location.Coordinates {
	c, ok := location.ParseCoordinates(lat, lng)
	if !ok {
		panic("bad test coordinates")
	}
	return &c
}

func samplePlayers() []ranking.Player {
	return []ranking.Player{
		{ID: "1", FirstName: "Ayse", LastName: "Kaya", Rating: rating(1500), Region: "Kadikoy", City: "Istanbul", Country: "Türkiye"},
		{ID: "2", FirstName: "Mehmet", LastName: "Demir", Rating: rating(1600), Region: "Cankaya", City: "Ankara", Country: "Turkiye"},
		{ID: "3", FirstName: "Jonas", LastName: "Weber", Rating: rating(1550), Region: "Mitte", City: "Berlin", Country: "Almanya"},
		{ID: "4", FirstName: "Zeynep", LastName: "Arslan", Region: "Kadikoy", City: "Istanbul", Country: "Türkiye"},
	}
}
