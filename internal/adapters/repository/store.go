// Package repository provides the profile store: the read side of player
// profiles and ratings that leaderboards are built from.
package repository

import (
	"context"

	"github.com/okian/racketrank/internal/domain/ranking"
)

// DiagnosticSampleSize is how many rated rows SampleLocations inspects.
const DiagnosticSampleSize = 20

// LocationSample is the stored location of one rated profile.
type LocationSample struct {
	Region  string `json:"region"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Store provides read access to rated profiles.
type Store interface {
	// TopRated returns rated players matching f, ordered by rating desc,
	// at most f.Limit of them. Equal ratings keep the store's order.
	TopRated(ctx context.Context, f ranking.Filter) ([]ranking.Player, error)

	// SampleLocations returns the stored locations of up to n rated
	// profiles. It exists for diagnostics when a filter matches nothing.
	SampleLocations(ctx context.Context, n int) ([]LocationSample, error)
}
