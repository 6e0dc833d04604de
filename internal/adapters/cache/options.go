package cache

import "time"

// Option configures a Layer.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
