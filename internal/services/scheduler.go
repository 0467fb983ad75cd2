package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"go.uber.org/zap"
)

// Reactive prompt delay windows, in minutes after the plunge.
var reactiveWindows = [][2]int{
	{15, 30},   // window 1: 15-30 min post-plunge
	{120, 180}, // window 2: 2-3 h post-plunge
}

// PromptStore is the persistence surface the scheduler depends on.
type PromptStore interface {
	CreatePrompt(ctx context.Context, prompt *models.PromptEvent) error
	CountPromptsScheduledBetween(ctx context.Context, userID uint, start, end time.Time) (int64, error)
	LastSentPromptAt(ctx context.Context, userID uint) (*time.Time, error)
	GetNotificationProfile(ctx context.Context, userID uint) (*models.NotificationProfile, error)
	ProfilesWithPushEnabled(ctx context.Context) ([]models.NotificationProfile, error)
}

// NotificationScheduler decides when prompts are created, under the daily
// cap and the minimum gap since the last sent prompt.
type NotificationScheduler struct {
	store          PromptStore
	log            *zap.Logger
	dailyPromptCap int
	minGapMinutes  int
	now            func() time.Time
	randInt        func(min, max int) int // inclusive on both ends
}

func NewNotificationScheduler(store PromptStore, dailyPromptCap, minGapMinutes int, log *zap.Logger) *NotificationScheduler {
	return &NotificationScheduler{
		store:          store,
		log:            log,
		dailyPromptCap: dailyPromptCap,
		minGapMinutes:  minGapMinutes,
		now:            time.Now,
		randInt: func(min, max int) int {
			return min + rand.Intn(max-min+1)
		},
	}
}

// CanSchedule reports whether adding a prompt now would violate either the
// daily cap (prompts scheduled within the current UTC day) or the minimum
// gap since the most recently sent prompt. A user who has never been sent
// a prompt passes the gap check.
func (n *NotificationScheduler) CanSchedule(ctx context.Context, userID uint) (bool, error) {
	now := n.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	count, err := n.store.CountPromptsScheduledBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	if count >= int64(n.dailyPromptCap) {
		return false, nil
	}

	lastSent, err := n.store.LastSentPromptAt(ctx, userID)
	if err != nil {
		return false, err
	}
	if lastSent != nil && now.Sub(*lastSent) < time.Duration(n.minGapMinutes)*time.Minute {
		return false, nil
	}
	return true, nil
}

// ScheduleReactivePrompts creates up to two prompts tied to a plunge, one
// per delay window. The cap/gap gate is re-checked before each creation
// and the loop stops at the first blocked attempt. Returns whatever subset
// was created.
func (n *NotificationScheduler) ScheduleReactivePrompts(ctx context.Context, plunge *models.PlungeLog) ([]models.PromptEvent, error) {
	var created []models.PromptEvent
	for _, window := range reactiveWindows {
		ok, err := n.CanSchedule(ctx, plunge.UserID)
		if err != nil {
			return created, err
		}
		if !ok {
			break
		}

		delayMinutes := n.randInt(window[0], window[1])
		prompt := models.PromptEvent{
			UserID:         plunge.UserID,
			ScheduledAt:    plunge.Timestamp.Add(time.Duration(delayMinutes) * time.Minute),
			PromptType:     models.PromptReactive,
			LinkedPlungeID: &plunge.ID,
		}
		if err := n.store.CreatePrompt(ctx, &prompt); err != nil {
			return created, err
		}
		created = append(created, prompt)
	}
	return created, nil
}

// ScheduleDailyPromptsForUser creates the morning and evening scheduled
// prompts for one user on the given date. No-op when the user has no
// notification profile or push is disabled. Window times are interpreted
// as UTC wall clock since no participant timezone is tracked. Each attempt
// is gated separately and the loop stops at the first blocked one.
func (n *NotificationScheduler) ScheduleDailyPromptsForUser(ctx context.Context, userID uint, date time.Time) ([]models.PromptEvent, error) {
	profile, err := n.store.GetNotificationProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.PushEnabled {
		return nil, nil
	}

	var created []models.PromptEvent
	for _, window := range []string{profile.MorningWindowStart, profile.EveningWindowStart} {
		ok, err := n.CanSchedule(ctx, userID)
		if err != nil {
			return created, err
		}
		if !ok {
			break
		}

		windowTime, err := time.Parse("15:04", window)
		if err != nil {
			n.log.Warn("Invalid notification window time",
				zap.Uint("userID", userID),
				zap.String("window", window),
			)
			continue
		}

		prompt := models.PromptEvent{
			UserID: userID,
			ScheduledAt: time.Date(
				date.Year(), date.Month(), date.Day(),
				windowTime.Hour(), windowTime.Minute(), 0, 0, time.UTC,
			),
			PromptType: models.PromptScheduled,
		}
		if err := n.store.CreatePrompt(ctx, &prompt); err != nil {
			return created, err
		}
		created = append(created, prompt)
	}
	return created, nil
}

// ScheduleDailyPromptsForAllUsers runs the daily scheduling pass over
// every opted-in profile. Per-user failures are logged and skipped so one
// bad profile cannot stall the rest.
func (n *NotificationScheduler) ScheduleDailyPromptsForAllUsers(ctx context.Context, date time.Time) int {
	profiles, err := n.store.ProfilesWithPushEnabled(ctx)
	if err != nil {
		n.log.Error("Failed to list notification profiles", zap.Error(err))
		return 0
	}

	total := 0
	for _, profile := range profiles {
		created, err := n.ScheduleDailyPromptsForUser(ctx, profile.UserID, date)
		if err != nil {
			n.log.Error("Failed to schedule daily prompts",
				zap.Uint("userID", profile.UserID),
				zap.Error(err),
			)
			continue
		}
		total += len(created)
	}
	return total
}
