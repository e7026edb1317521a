package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// RetryAfter is how long the failover limiter stays on the fallback before
// trying the primary again.
const RetryAfter = time.Minute

// FailoverLimiter uses primary until it errors, then serves from fallback and
// tries primary again after RetryAfter.
type FailoverLimiter struct {
	primary   Limiter
	fallback  Limiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos
	now       func() time.Time
}

func NewFailoverLimiter(primary, fallback Limiter, logger *zerolog.Logger) *FailoverLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *FailoverLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.isDown.Load() {
		allowed, err := l.primary.Allow(ctx, key)
		if err == nil {
			return allowed, nil
		}
		l.logger.Error().Err(err).Msg("primary rate limiter failed, falling back to memory")
		l.markDown()
		return l.fallback.Allow(ctx, key)
	}

	if l.now().Sub(time.Unix(0, l.lastCheck.Load())) > RetryAfter {
		allowed, err := l.primary.Allow(ctx, key)
		if err == nil {
			l.isDown.Store(false)
			l.logger.Info().Msg("primary rate limiter recovered")
			return allowed, nil
		}
		l.lastCheck.Store(l.now().UnixNano())
	}

	return l.fallback.Allow(ctx, key)
}

// Degraded reports whether requests are currently served by the fallback.
func (l *FailoverLimiter) Degraded() bool {
	return l.isDown.Load()
}

func (l *FailoverLimiter) markDown() {
	l.isDown.Store(true)
	l.lastCheck.Store(l.now().UnixNano())
}
