package services

import (
	"context"
	"fmt"
	"time"
)

// RateLimitStore is the session-count query the limiter needs.
type RateLimitStore interface {
	CountVoluntarySessionsSince(ctx context.Context, userID uint, since time.Time) (int64, error)
}

// RateLimiter enforces the anti-gaming caps on voluntary sessions.
// Practice sessions are excluded by the store query and are never blocked.
type RateLimiter struct {
	store      RateLimitStore
	maxPerHour int
	maxPerDay  int
	now        func() time.Time
}

func NewRateLimiter(store RateLimitStore, maxPerHour, maxPerDay int) *RateLimiter {
	return &RateLimiter{
		store:      store,
		maxPerHour: maxPerHour,
		maxPerDay:  maxPerDay,
		now:        time.Now,
	}
}

// Check reports whether the user may start another voluntary session.
// The hourly limit is evaluated first; when it blocks, the daily limit is
// not consulted and the reason names the hourly threshold.
func (rl *RateLimiter) Check(ctx context.Context, userID uint) (bool, string, error) {
	now := rl.now()

	hourAgo := now.Add(-time.Hour)
	hourlyCount, err := rl.store.CountVoluntarySessionsSince(ctx, userID, hourAgo)
	if err != nil {
		return false, "", err
	}
	if hourlyCount >= int64(rl.maxPerHour) {
		return false, fmt.Sprintf(
			"You have started %d sessions in the last hour. Please wait a while before starting another.",
			rl.maxPerHour,
		), nil
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dailyCount, err := rl.store.CountVoluntarySessionsSince(ctx, userID, dayStart)
	if err != nil {
		return false, "", err
	}
	if dailyCount >= int64(rl.maxPerDay) {
		return false, fmt.Sprintf(
			"You have reached the maximum of %d sessions for today. Come back tomorrow!",
			rl.maxPerDay,
		), nil
	}

	return true, "", nil
}
