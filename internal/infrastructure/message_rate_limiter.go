package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserLimiter keeps a token bucket per user. Buckets idle for longer than the
// idle window are dropped by a background sweep.
type UserLimiter struct {
	mu          sync.Mutex
	limiters    map[int64]*limiterEntry
	limit       rate.Limit
	burst       int
	idle        time.Duration
	cleanupTick time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserLimiter allows r events per second per user with bursts of b.
// b <= 0 disables limiting.
func NewUserLimiter(r rate.Limit, b int, idle time.Duration) *UserLimiter {
	ul := &UserLimiter{
		limiters:    make(map[int64]*limiterEntry),
		limit:       r,
		burst:       b,
		idle:        idle,
		cleanupTick: 5 * time.Minute,
		stop:        make(chan struct{}),
	}
	if idle < ul.cleanupTick {
		ul.cleanupTick = idle
	}
	if b > 0 && idle > 0 {
		go ul.cleanup()
	}
	return ul
}

// NewSendLimiter caps user-initiated sends (manual reminders) at perHour per
// user, all of which may be used in a burst. perHour <= 0 disables limiting.
func NewSendLimiter(perHour int) *UserLimiter {
	if perHour <= 0 {
		return NewUserLimiter(0, 0, 0)
	}
	return NewUserLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour, time.Hour)
}

// Allow consumes one token for userID if available.
func (ul *UserLimiter) Allow(userID int64) bool {
	if ul.burst <= 0 {
		return true
	}
	return ul.get(userID).Allow()
}

// WaitTime returns how long until the next token is available for userID.
func (ul *UserLimiter) WaitTime(userID int64) time.Duration {
	if ul.burst <= 0 {
		return 0
	}
	r := ul.get(userID).Reserve()
	delay := r.Delay()
	r.Cancel()
	return delay
}

func (ul *UserLimiter) Close() {
	ul.stopOnce.Do(func() { close(ul.stop) })
}

func (ul *UserLimiter) get(userID int64) *rate.Limiter {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.limiters[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(ul.limit, ul.burst)}
		ul.limiters[userID] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (ul *UserLimiter) cleanup() {
	ticker := time.NewTicker(ul.cleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-ul.stop:
			return
		case now := <-ticker.C:
			ul.sweep(now)
		}
	}
}

// sweep drops buckets last used more than the idle window before now.
func (ul *UserLimiter) sweep(now time.Time) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	for userID, e := range ul.limiters {
		if now.Sub(e.lastSeen) > ul.idle {
			delete(ul.limiters, userID)
		}
	}
}

// GetStats returns limiter statistics.
func (ul *UserLimiter) GetStats() map[string]interface{} {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	return map[string]interface{}{
		"tracked_users": len(ul.limiters),
		"burst":         ul.burst,
	}
}
