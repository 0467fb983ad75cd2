package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreatePrompt(ctx context.Context, prompt *models.PromptEvent) error {
	return s.db.WithContext(ctx).Create(prompt).Error
}

// CountPromptsScheduledBetween counts the user's prompts with scheduled_at
// in [start, end). Used for the daily prompt cap.
func (s *Store) CountPromptsScheduledBetween(ctx context.Context, userID uint, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PromptEvent{}).
		Where("user_id = ? AND scheduled_at >= ? AND scheduled_at < ?", userID, start, end).
		Count(&count).Error
	return count, err
}

// LastSentPromptAt returns when the user's most recent prompt was sent, or
// nil if no prompt has ever been sent.
func (s *Store) LastSentPromptAt(ctx context.Context, userID uint) (*time.Time, error) {
	var prompt models.PromptEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND sent_at IS NOT NULL", userID).
		Order("sent_at DESC").
		First(&prompt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prompt.SentAt, nil
}

// GetNotificationProfile returns the user's profile, or nil if the user
// has never registered for notifications.
func (s *Store) GetNotificationProfile(ctx context.Context, userID uint) (*models.NotificationProfile, error) {
	var profile models.NotificationProfile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RegisterDevice associates a OneSignal player ID with the user, creating
// the profile if needed.
func (s *Store) RegisterDevice(ctx context.Context, userID uint, playerID string) (*models.NotificationProfile, error) {
	var profile models.NotificationProfile
	err := s.db.WithContext(ctx).
		Where(models.NotificationProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Model(&profile).
		Update("one_signal_player_id", playerID).Error
	return &profile, err
}

// preferenceFields builds the column map for a preferences update. Blank
// window strings mean "leave the stored window alone"; writing them would
// clobber the defaults and starve the daily scheduler of parseable times.
func preferenceFields(enabled bool, morning, evening string) map[string]any {
	fields := map[string]any{"push_enabled": enabled}
	if morning != "" {
		fields["morning_window_start"] = morning
	}
	if evening != "" {
		fields["evening_window_start"] = evening
	}
	return fields
}

// UpdateNotificationPreferences updates a user's push settings, creating
// the profile with its window defaults when the user has never registered
// a device.
func (s *Store) UpdateNotificationPreferences(ctx context.Context, userID uint, enabled bool, morning, evening string) error {
	var profile models.NotificationProfile
	err := s.db.WithContext(ctx).
		Where(models.NotificationProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&profile).
		Updates(preferenceFields(enabled, morning, evening)).Error
}

// ProfilesWithPushEnabled returns every opted-in profile, for the daily
// dispatch loop.
func (s *Store) ProfilesWithPushEnabled(ctx context.Context) ([]models.NotificationProfile, error) {
	var profiles []models.NotificationProfile
	err := s.db.WithContext(ctx).
		Where("push_enabled = ?", true).
		Find(&profiles).Error
	return profiles, err
}

// DuePrompts returns unsent prompts whose scheduled time has passed.
func (s *Store) DuePrompts(ctx context.Context, now time.Time) ([]models.PromptEvent, error) {
	var prompts []models.PromptEvent
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND scheduled_at <= ?", now).
		Order("scheduled_at").
		Find(&prompts).Error
	return prompts, err
}

// MarkPromptSent stamps sent_at. The field is set once; a prompt already
// marked sent is left untouched.
func (s *Store) MarkPromptSent(ctx context.Context, promptID uint, sentAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.PromptEvent{}).
		Where("id = ? AND sent_at IS NULL", promptID).
		Update("sent_at", sentAt).Error
}

// MarkPromptOpened stamps opened_at once.
func (s *Store) MarkPromptOpened(ctx context.Context, promptID uint, userID uint, openedAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.PromptEvent{}).
		Where("id = ? AND user_id = ? AND opened_at IS NULL", promptID, userID).
		Update("opened_at", openedAt).Error
}
