package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles processing per source system so a burst of documents
// from one upstream does not starve the others.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with the given default rate and burst
// applied to every source system that has no explicit override.
func NewLimiter(ratePerSecond float64, burst int) *Limiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(ratePerSecond),
		defaultBurst: burst,
	}
}

func (l *Limiter) limiterFor(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[source]
	if !ok {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[source] = lim
	}
	return lim
}

// Wait blocks until a slot is available for the given source system.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	return l.limiterFor(source).Wait(ctx)
}

// Allow reports whether a slot is immediately available for the source.
func (l *Limiter) Allow(source string) bool {
	return l.limiterFor(source).Allow()
}

// SetRate overrides the rate and burst for a single source system.
func (l *Limiter) SetRate(source string, ratePerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[source] = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}
