package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) CreateSession(ctx context.Context, session *models.CognitiveSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

// GetSession returns the session, or nil if no such session exists.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.CognitiveSession, error) {
	var session models.CognitiveSession
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetInProgressSession returns the session only when it is owned by the
// user and still in progress, or nil otherwise. Used to resume from the
// session pointer.
func (s *Store) GetInProgressSession(ctx context.Context, id uuid.UUID, userID uint) (*models.CognitiveSession, error) {
	var session models.CognitiveSession
	err := s.db.WithContext(ctx).
		First(&session, "id = ? AND user_id = ? AND completion_status = ?", id, userID, models.StatusInProgress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSessionFields applies a field-level update without writing the
// whole row, so flag accumulation and meta writes never clobber each other.
func (s *Store) UpdateSessionFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return s.db.WithContext(ctx).
		Model(&models.CognitiveSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// CompletedTaskTypes returns the task types that already have a TaskResult
// for this session.
func (s *Store) CompletedTaskTypes(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	var types []string
	err := s.db.WithContext(ctx).
		Model(&models.TaskResult{}).
		Where("session_id = ?", sessionID).
		Distinct().
		Pluck("task_type", &types).Error
	return types, err
}

// CountVoluntarySessionsSince counts non-practice sessions started at or
// after the given time. Practice sessions never count toward rate limits.
func (s *Store) CountVoluntarySessionsSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CognitiveSession{}).
		Where("user_id = ? AND is_practice = ? AND started_at >= ?", userID, false, since).
		Count(&count).Error
	return count, err
}

// HasCompletedSessionSince reports whether the user has a different,
// complete session with completed_at at or after cutoff.
func (s *Store) HasCompletedSessionSince(ctx context.Context, userID uint, cutoff time.Time, exclude uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CognitiveSession{}).
		Where("user_id = ? AND completion_status = ? AND completed_at >= ? AND id <> ?",
			userID, models.StatusComplete, cutoff, exclude).
		Count(&count).Error
	return count > 0, err
}
