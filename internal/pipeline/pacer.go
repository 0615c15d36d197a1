package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive page fetches within one job. The first wait is
// free; every later wait blocks until the configured delay has elapsed
// since the previous fetch.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with a fixed inter-page delay. A non-positive
// delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next page may be fetched or the context ends.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
