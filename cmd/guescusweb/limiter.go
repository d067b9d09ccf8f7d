package main

import (
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/johnqtcg/guescus/internal/config"
)

const limiterIdleTTL = 10 * time.Minute

// guestLimiter throttles guest submissions per client address. It backs up
// the per-client cooldown, which a client can shed by dropping its cookie.
// A nil limiter allows everything.
type guestLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	every    time.Duration
	burst    int
}

func newGuestLimiter(cfg config.GuestRateConfig) *guestLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &guestLimiter{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
		every:    time.Minute / time.Duration(cfg.PerMinute),
		burst:    burst,
	}
}

// Allow consumes one token for addr.
func (l *guestLimiter) Allow(addr string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var lim *rate.Limiter
	if v, ok := l.limiters.Get(addr); ok {
		lim, _ = v.(*rate.Limiter)
	}
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(l.every), l.burst)
	}
	l.limiters.Set(addr, lim, cache.DefaultExpiration)
	return lim.Allow()
}

// RetryAfter is the whole-second wait until the next token.
func (l *guestLimiter) RetryAfter() int {
	if l == nil {
		return 0
	}
	return int(math.Ceil(l.every.Seconds()))
}
