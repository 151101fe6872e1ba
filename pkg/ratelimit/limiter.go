package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter spaces out calls per source name so that consecutive calls to the
// same source are at least 60/callsPerMinute seconds apart. Callers over the
// rate are made to wait; no call is ever dropped.
//
// Each caller reserves its slot under the lock and then sleeps without it,
// so concurrent callers for one source get distinct slots and callers for
// other sources are never held up. Order among waiters is not guaranteed.
type Limiter struct {
	mu     sync.Mutex
	last   map[string]time.Time
	now    func() time.Time
	sleep  func(time.Duration)
	logger *zap.Logger
}

// Config holds configuration for Limiter.
type Config struct {
	Logger *zap.Logger
	Now    func() time.Time    // defaults to time.Now
	Sleep  func(time.Duration) // defaults to time.Sleep
}

// New creates a Limiter with no recorded calls.
func New(cfg *Config) *Limiter {
	l := &Limiter{
		last:   make(map[string]time.Time),
		now:    time.Now,
		sleep:  time.Sleep,
		logger: zap.NewNop(),
	}
	if cfg != nil {
		if cfg.Now != nil {
			l.now = cfg.Now
		}
		if cfg.Sleep != nil {
			l.sleep = cfg.Sleep
		}
		if cfg.Logger != nil {
			l.logger = cfg.Logger
		}
	}
	return l
}

// MinInterval returns the spacing enforced for a calls-per-minute budget.
// A non-positive budget disables throttling.
func MinInterval(callsPerMinute int) time.Duration {
	if callsPerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(callsPerMinute)
}

// Throttle blocks until the caller may issue a request to source and records
// the call. The first call for a source never waits.
func (l *Limiter) Throttle(source string, callsPerMinute int) {
	interval := MinInterval(callsPerMinute)

	l.mu.Lock()
	now := l.now()
	slot := now
	if prev, ok := l.last[source]; ok {
		if next := prev.Add(interval); next.After(now) {
			slot = next
		}
	}
	l.last[source] = slot
	l.mu.Unlock()

	wait := slot.Sub(now)
	ThrottleWaitSeconds.WithLabelValues(source).Observe(wait.Seconds())
	if wait <= 0 {
		return
	}

	ThrottledCallsTotal.WithLabelValues(source).Inc()
	l.logger.Debug("rate-limit-wait",
		zap.String("source", source),
		zap.Duration("wait", wait))
	l.sleep(wait)
}

// LastCall returns the most recently reserved call time for source.
func (l *Limiter) LastCall(source string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.last[source]
	return t, ok
}
