package services

import (
	"context"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"go.uber.org/zap"
)

// maxSendAttempts bounds delivery retries per dispatch pass.
const maxSendAttempts = 3

// DispatchStore extends the scheduler's store view with the queries the
// background dispatcher needs.
type DispatchStore interface {
	PromptStore
	DuePrompts(ctx context.Context, now time.Time) ([]models.PromptEvent, error)
	MarkPromptSent(ctx context.Context, promptID uint, sentAt time.Time) error
}

// Dispatcher is the background prompt loop: every minute it sends due
// prompts, and once per UTC day it schedules the morning/evening prompts
// for all opted-in users.
type Dispatcher struct {
	store     DispatchStore
	scheduler *NotificationScheduler
	push      Pusher
	log       *zap.Logger

	lastDailyRun string // "2006-01-02" of the last daily scheduling pass
}

func NewDispatcher(store DispatchStore, scheduler *NotificationScheduler, push Pusher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		scheduler: scheduler,
		push:      push,
		log:       log,
	}
}

// Start runs the dispatcher in a goroutine.
func (d *Dispatcher) Start() {
	d.log.Info("Starting prompt dispatcher...")
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			<-ticker.C
			d.runOnce(context.Background())
		}
	}()
}

func (d *Dispatcher) runOnce(ctx context.Context) {
	now := time.Now().UTC()

	today := now.Format("2006-01-02")
	if d.lastDailyRun != today {
		d.lastDailyRun = today
		count := d.scheduler.ScheduleDailyPromptsForAllUsers(ctx, now)
		d.log.Info("Daily prompt scheduling pass complete", zap.Int("created", count))
	}

	d.dispatchDue(ctx, now)
}

func (d *Dispatcher) dispatchDue(ctx context.Context, now time.Time) {
	prompts, err := d.store.DuePrompts(ctx, now)
	if err != nil {
		d.log.Error("Failed to query due prompts", zap.Error(err))
		return
	}

	for _, prompt := range prompts {
		d.sendPrompt(ctx, prompt, now)
	}
}

func (d *Dispatcher) sendPrompt(ctx context.Context, prompt models.PromptEvent, now time.Time) {
	profile, err := d.store.GetNotificationProfile(ctx, prompt.UserID)
	if err != nil {
		d.log.Error("Failed to load notification profile",
			zap.Uint("promptID", prompt.ID), zap.Error(err))
		return
	}
	if profile == nil || !profile.PushEnabled || profile.OneSignalPlayerID == "" {
		d.log.Debug("Skipping prompt without a deliverable device",
			zap.Uint("promptID", prompt.ID), zap.Uint("userID", prompt.UserID))
		return
	}

	data := map[string]any{"prompt_event_id": prompt.ID}
	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		lastErr = d.push.SendPush(ctx, profile.OneSignalPlayerID,
			"Time for your cognitive assessment",
			"Tap to start your session.",
			data,
		)
		if lastErr == nil {
			if err := d.store.MarkPromptSent(ctx, prompt.ID, now); err != nil {
				d.log.Error("Failed to mark prompt sent",
					zap.Uint("promptID", prompt.ID), zap.Error(err))
			}
			return
		}
	}
	d.log.Error("Push delivery failed after retries",
		zap.Uint("promptID", prompt.ID),
		zap.Int("attempts", maxSendAttempts),
		zap.Error(lastErr),
	)
}
