package services

import (
	"context"
	"testing"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler(store *fakeStore) *NotificationScheduler {
	return NewNotificationScheduler(store, 4, 45, zap.NewNop())
}

func TestReactivePromptsUseBothWindows(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)
	sched.randInt = func(min, max int) int { return min } // earliest delay

	plungeAt := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return plungeAt.Add(time.Minute) }
	plunge := &models.PlungeLog{ID: 7, UserID: 1, Timestamp: plungeAt}

	created, err := sched.ScheduleReactivePrompts(context.Background(), plunge)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, plungeAt.Add(15*time.Minute), created[0].ScheduledAt)
	assert.Equal(t, plungeAt.Add(120*time.Minute), created[1].ScheduledAt)
	for _, prompt := range created {
		assert.Equal(t, models.PromptReactive, prompt.PromptType)
		require.NotNil(t, prompt.LinkedPlungeID)
		assert.Equal(t, uint(7), *prompt.LinkedPlungeID)
	}
}

func TestReactivePromptDelaysStayInsideWindows(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)

	plungeAt := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return plungeAt.Add(time.Minute) }
	plunge := &models.PlungeLog{ID: 1, UserID: 1, Timestamp: plungeAt}

	created, err := sched.ScheduleReactivePrompts(context.Background(), plunge)
	require.NoError(t, err)
	require.Len(t, created, 2)

	delay1 := created[0].ScheduledAt.Sub(plungeAt)
	assert.GreaterOrEqual(t, delay1, 15*time.Minute)
	assert.LessOrEqual(t, delay1, 30*time.Minute)

	delay2 := created[1].ScheduledAt.Sub(plungeAt)
	assert.GreaterOrEqual(t, delay2, 120*time.Minute)
	assert.LessOrEqual(t, delay2, 180*time.Minute)
}

func TestDailyCapBlocksScheduling(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)

	now := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	// Fill the day to the cap.
	for i := 0; i < 4; i++ {
		store.prompts = append(store.prompts, models.PromptEvent{
			UserID:      1,
			ScheduledAt: now.Add(time.Duration(i) * time.Hour),
			PromptType:  models.PromptScheduled,
		})
	}

	plunge := &models.PlungeLog{ID: 1, UserID: 1, Timestamp: now}
	created, err := sched.ScheduleReactivePrompts(context.Background(), plunge)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMinGapSinceLastSentBlocksScheduling(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)

	now := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }
	sentAt := now.Add(-10 * time.Minute)
	store.lastSent = &sentAt

	ok, err := sched.CanSchedule(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok, "10 minutes since last sent is inside the 45-minute gap")

	sentAt = now.Add(-time.Hour)
	ok, err = sched.CanSchedule(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReactiveStopsAtFirstBlockedWindow(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)
	sched.randInt = func(min, max int) int { return min }

	now := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	// Three prompts already today: only one slot left under the cap of 4.
	for i := 0; i < 3; i++ {
		store.prompts = append(store.prompts, models.PromptEvent{
			UserID:      1,
			ScheduledAt: now.Add(time.Duration(i) * time.Hour),
		})
	}

	plunge := &models.PlungeLog{ID: 1, UserID: 1, Timestamp: now}
	created, err := sched.ScheduleReactivePrompts(context.Background(), plunge)
	require.NoError(t, err)
	assert.Len(t, created, 1, "second window must be blocked by the cap")
}

func TestDailyPromptsForUser(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)

	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return date.Add(5 * time.Hour) }
	store.profiles[1] = &models.NotificationProfile{
		UserID:             1,
		PushEnabled:        true,
		MorningWindowStart: "08:00",
		EveningWindowStart: "18:00",
	}

	created, err := sched.ScheduleDailyPromptsForUser(context.Background(), 1, date)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC), created[0].ScheduledAt)
	assert.Equal(t, time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC), created[1].ScheduledAt)
	assert.Equal(t, models.PromptScheduled, created[0].PromptType)
	assert.Nil(t, created[0].LinkedPlungeID)
}

func TestDailyPromptsSurviveBlankWindow(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)

	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return date.Add(5 * time.Hour) }
	store.profiles[1] = &models.NotificationProfile{
		UserID:             1,
		PushEnabled:        true,
		MorningWindowStart: "",
		EveningWindowStart: "18:00",
	}

	created, err := sched.ScheduleDailyPromptsForUser(context.Background(), 1, date)
	require.NoError(t, err)
	require.Len(t, created, 1, "an unparseable window must not suppress the other one")
	assert.Equal(t, time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC), created[0].ScheduledAt)
}

func TestDailyPromptsSkipDisabledProfile(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return date }

	created, err := sched.ScheduleDailyPromptsForUser(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Empty(t, created, "no profile means no prompts")

	store.profiles[1] = &models.NotificationProfile{UserID: 1, PushEnabled: false}
	created, err = sched.ScheduleDailyPromptsForUser(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Empty(t, created, "push disabled means no prompts")
}

func TestDailyPromptsForAllUsers(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store)
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return date }

	store.profiles[1] = &models.NotificationProfile{
		UserID: 1, PushEnabled: true,
		MorningWindowStart: "08:00", EveningWindowStart: "18:00",
	}
	store.profiles[2] = &models.NotificationProfile{UserID: 2, PushEnabled: false}

	total := sched.ScheduleDailyPromptsForAllUsers(context.Background(), date)
	assert.Equal(t, 2, total)
}

func TestRateLimiterHourlyTakesPrecedence(t *testing.T) {
	store := newFakeStore()
	limiter := NewRateLimiter(store, 2, 8)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	addSession := func(startedAt time.Time) {
		session := &models.CognitiveSession{ID: uuid.New(), UserID: 1, StartedAt: &startedAt}
		store.sessions[session.ID] = session
	}

	// Two sessions within the hour: hourly limit reached, and its reason is
	// the one surfaced even though the daily count is also climbing.
	addSession(now.Add(-10 * time.Minute))
	addSession(now.Add(-20 * time.Minute))

	allowed, reason, err := limiter.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Contains(t, reason, "hour")

	// Sessions earlier in the day count toward the daily cap only.
	store2 := newFakeStore()
	limiter2 := NewRateLimiter(store2, 2, 3)
	limiter2.now = limiter.now
	for i := 0; i < 3; i++ {
		startedAt := now.Add(-time.Duration(i+2) * time.Hour)
		session := &models.CognitiveSession{ID: uuid.New(), UserID: 1, StartedAt: &startedAt}
		store2.sessions[session.ID] = session
	}

	allowed, reason, err = limiter2.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Contains(t, reason, "today")
}
