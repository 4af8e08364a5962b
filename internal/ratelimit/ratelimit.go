package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"milnews/internal/logger"
)

// QuotaLimiter caps outbound Naver Open API calls against the daily quota.
// The counter resets 24 hours after the first recorded call.
type QuotaLimiter struct {
	mu      sync.Mutex
	count   int
	max     int
	resetAt time.Time
}

// NewQuotaLimiter creates a limiter allowing maxPerDay calls (0 = unlimited).
func NewQuotaLimiter(maxPerDay int) *QuotaLimiter {
	return &QuotaLimiter{
		max:     maxPerDay,
		resetAt: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether another API call may be made right now.
func (l *QuotaLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()
	return l.max <= 0 || l.count < l.max
}

// Use records one API call. Returns an error when the quota is exhausted.
func (l *QuotaLimiter) Use() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if l.max > 0 && l.count >= l.max {
		return fmt.Errorf("naver API daily quota exceeded (%d/%d)", l.count, l.max)
	}

	l.count++
	return nil
}

// Stats returns current usage counters.
func (l *QuotaLimiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"used":       l.count,
		"limit":      l.max,
		"reset_time": l.resetAt,
	}
}

func (l *QuotaLimiter) checkReset() {
	if time.Now().After(l.resetAt) {
		logger.Info("resetting naver API quota counter", "used", l.count, "limit", l.max)
		l.count = 0
		l.resetAt = time.Now().Add(24 * time.Hour)
	}
}
