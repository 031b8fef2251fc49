// Package limiter provides pacing primitives for batched storage writes.
package limiter

import (
	"context"

	"golang.org/x/time/rate"

	"bookmarkly/internal/domain"
)

type ratePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer returns a Pacer allowing batchesPerSecond waits per second
// with a burst of one. A non-positive rate returns a no-op pacer.
func NewRatePacer(batchesPerSecond float64) domain.Pacer {
	if batchesPerSecond <= 0 {
		return nopPacer{}
	}
	return &ratePacer{limiter: rate.NewLimiter(rate.Limit(batchesPerSecond), 1)}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type nopPacer struct{}

func (nopPacer) Wait(ctx context.Context) error { return nil }
