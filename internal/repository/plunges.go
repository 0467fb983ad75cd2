package repository

import (
	"context"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"
)

func (s *Store) CreatePlunge(ctx context.Context, plunge *models.PlungeLog) error {
	return s.db.WithContext(ctx).Create(plunge).Error
}

// PlungeTimestampsBefore returns the user's plunge timestamps strictly
// before the given time, oldest first. Input to the derived-variable
// computation.
func (s *Store) PlungeTimestampsBefore(ctx context.Context, userID uint, before time.Time) ([]time.Time, error) {
	var timestamps []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.PlungeLog{}).
		Where("user_id = ? AND timestamp < ?", userID, before).
		Order("timestamp").
		Pluck("timestamp", &timestamps).Error
	return timestamps, err
}
