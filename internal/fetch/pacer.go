package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces outgoing requests: a token bucket bounds the global rate
// and a randomized delay uniform in [min,max] breaks up the cadence so
// request timing does not look mechanical to the target sites.
type Pacer struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
	randFunc func(time.Duration) time.Duration
}

// PacerOption configures the Pacer.
type PacerOption func(*Pacer)

// WithPacerRandFunc overrides the jitter source for testing.
func WithPacerRandFunc(f func(time.Duration) time.Duration) PacerOption {
	return func(p *Pacer) {
		p.randFunc = f
	}
}

// NewPacer creates a pacer with the given per-second rate and burst size,
// plus a randomized inter-request delay window. min and max may both be
// zero to disable jitter.
func NewPacer(perSecond float64, burst int, minDelay, maxDelay time.Duration, opts ...PacerOption) *Pacer {
	p := &Pacer{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		minDelay: minDelay,
		maxDelay: maxDelay,
		randFunc: func(span time.Duration) time.Duration {
			if span <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(span)))
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until the next request is allowed, or the context is
// canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	delay := p.minDelay + p.randFunc(p.maxDelay-p.minDelay)
	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
