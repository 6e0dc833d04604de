package app

import (
	"context"
	"errors"
	"time"

	"github.com/okian/racketrank/internal/adapters/mq/queue"
	"github.com/okian/racketrank/internal/domain/location"
	"github.com/okian/racketrank/pkg/logger"
)

// Warm task reasons.
const (
	ReasonStartup  = "startup"
	ReasonSchedule = "schedule"
)

// Warmer keeps the country leaderboards of a fixed list hot by enqueuing
// them at start and then on every tick.
type Warmer struct {
	queue     queue.Queue
	countries []string
	interval  time.Duration
	logger    logger.Logger
}

// NewWarmer creates a Warmer. Countries are normalized and deduplicated;
// unknown or blank entries are dropped.
func NewWarmer(q queue.Queue, countries []string, interval time.Duration, log logger.Logger) *Warmer {
	seen := make(map[string]struct{}, len(countries))
	list := make([]string, 0, len(countries))
	for _, c := range countries {
		canonical := location.Normalize(c)
		if !location.IsKnown(canonical) {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		list = append(list, canonical)
	}
	return &Warmer{queue: q, countries: list, interval: interval, logger: log}
}

// Countries returns the normalized warm list.
func (w *Warmer) Countries() []string {
	out := make([]string, len(w.countries))
	copy(out, w.countries)
	return out
}

// Run enqueues the warm list immediately and then every interval until
// ctx is done. A non-positive interval enqueues once.
func (w *Warmer) Run(ctx context.Context) {
	if len(w.countries) == 0 {
		return
	}
	w.EnqueueAll(ctx, ReasonStartup)
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.EnqueueAll(ctx, ReasonSchedule)
		}
	}
}

// EnqueueAll submits one task per country and returns how many were
// accepted. Countries already pending are skipped silently.
func (w *Warmer) EnqueueAll(ctx context.Context, reason string) int {
	accepted := 0
	for _, c := range w.countries {
		err := w.queue.Enqueue(ctx, queue.Task{Country: c, Reason: reason, EnqueuedAt: time.Now()})
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, queue.ErrDuplicate):
		default:
			w.logger.Warn(ctx, "warm task dropped", logger.String("country", c), logger.String("reason", reason), logger.Error(err))
		}
	}
	return accepted
}
