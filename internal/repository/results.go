package repository

import (
	"context"

	"github.com/andytwoods/iceplunge/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTaskResult assigns the per-user submission indices and inserts the
// result. At read-committed isolation a plain transaction does not stop two
// concurrent submissions from reading the same count, so the count and
// insert run under a per-user advisory lock held until commit; concurrent
// submissions for the same user serialize and cannot produce duplicate
// (user, task_type, session_index_per_task) values.
func (s *Store) CreateTaskResult(ctx context.Context, userID uint, result *models.TaskResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(userID)).Error; err != nil {
			return err
		}

		userResults := tx.Model(&models.TaskResult{}).
			Joins("JOIN cognitive_sessions ON cognitive_sessions.id = task_results.session_id").
			Where("cognitive_sessions.user_id = ?", userID)

		var overall int64
		if err := userResults.Session(&gorm.Session{}).Count(&overall).Error; err != nil {
			return err
		}
		var perTask int64
		if err := userResults.Where("task_results.task_type = ?", result.TaskType).Count(&perTask).Error; err != nil {
			return err
		}

		result.SessionIndexOverall = int(overall) + 1
		result.SessionIndexPerTask = int(perTask) + 1
		return tx.Create(result).Error
	})
}

// UpdateResultSummary overwrites the stored summary with the
// server-computed value. This is the only mutation a TaskResult ever sees.
func (s *Store) UpdateResultSummary(ctx context.Context, id uuid.UUID, summary models.JSONMap) error {
	return s.db.WithContext(ctx).
		Model(&models.TaskResult{}).
		Where("id = ?", id).
		Update("summary_metrics", summary).Error
}

// CreateMoodRatingIfAbsent inserts the mood rating unless the session
// already has one; a second mood submission leaves the first record intact.
func (s *Store) CreateMoodRatingIfAbsent(ctx context.Context, rating *models.MoodRating) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(rating).Error
}
