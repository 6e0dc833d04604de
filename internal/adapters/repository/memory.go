package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/racketrank/internal/domain/ranking"
)

// MemoryStore keeps profiles in insertion order. It backs local runs
// without a database and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	players []ranking.Player
	queries int
}

// NewMemoryStore creates a store seeded with players.
func NewMemoryStore(players ...ranking.Player) *MemoryStore {
	s := &MemoryStore{}
	s.Add(players...)
	return s
}

// Add appends players; later players rank after earlier ones on equal rating.
func (s *MemoryStore) Add(players ...ranking.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		if p.Rating != nil {
			r := *p.Rating
			p.Rating = &r
		}
		s.players = append(s.players, p)
	}
}

// Queries returns how many TopRated calls have been served.
func (s *MemoryStore) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

func fieldValue(p ranking.Player, f ranking.Field) string {
	switch f {
	case ranking.FieldRegion:
		return p.Region
	case ranking.FieldCity:
		return p.City
	case ranking.FieldCountry:
		return p.Country
	}
	return ""
}

// TopRated implements Store.
func (s *MemoryStore) TopRated(_ context.Context, f ranking.Filter) ([]ranking.Player, error) {
	if f.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if _, err := column(f.Field); err != nil {
		return nil, err
	}

	start := time.Now()
	s.mu.Lock()
	s.queries++
	matched := make([]ranking.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.Rated() && f.Matches(fieldValue(p, f.Field)) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return *matched[i].Rating > *matched[j].Rating
	})
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	recordQuery(f.Field, start, len(matched), nil)
	return matched, nil
}

// SampleLocations implements Store.
func (s *MemoryStore) SampleLocations(_ context.Context, n int) ([]LocationSample, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LocationSample
	for _, p := range s.players {
		if !p.Rated() {
			continue
		}
		out = append(out, LocationSample{Region: p.Region, City: p.City, Country: p.Country})
		if len(out) == n {
			break
		}
	}
	return out, nil
}
