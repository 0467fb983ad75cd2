package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Completion statuses for a CognitiveSession.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusAbandoned  = "abandoned"
)

// Keys used inside CognitiveSession.DeviceMeta.
const (
	MetaSkippedTasks     = "skipped_tasks"
	MetaInterruptionLogs = "interruption_logs"
)

// CognitiveSession is one testing sitting: a fixed shuffled task order that
// the participant works through, submitting one TaskResult per task.
type CognitiveSession struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID                uint      `gorm:"index:idx_sessions_user_started;index:idx_sessions_user_status"`
	User                  User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	PromptEventID         *uint
	PromptEvent           *PromptEvent `gorm:"foreignKey:PromptEventID;constraint:OnDelete:SET NULL"`
	StartedAt             *time.Time   `gorm:"index:idx_sessions_user_started"`
	CompletedAt           *time.Time
	TaskOrder             pq.StringArray `gorm:"type:text[]"`
	RandomSeed            string         `gorm:"size:64"`
	DeviceMeta            JSONMap        `gorm:"type:jsonb"`
	TimezoneOffsetMinutes *int16
	CompletionStatus      string         `gorm:"size:20;default:in_progress;index:idx_sessions_user_status"`
	QualityFlags          pq.StringArray `gorm:"type:text[]"`
	IsPractice            bool
	DerivedVariables      JSONMap `gorm:"type:jsonb"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SkippedTasks returns the task types the participant skipped in this session.
func (s *CognitiveSession) SkippedTasks() []string {
	return s.DeviceMeta.StringList(MetaSkippedTasks)
}

// InterruptionLogs returns the accumulated interruption entries.
func (s *CognitiveSession) InterruptionLogs() []map[string]any {
	return s.DeviceMeta.MapList(MetaInterruptionLogs)
}

// TaskResult is one completed (or viable partial) task attempt.
// TrialData is stored verbatim as submitted; SummaryMetrics is overwritten
// with the server-computed value whenever a computer is registered for the
// task type.
type TaskResult struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey"`
	SessionID           uuid.UUID        `gorm:"type:uuid;index"`
	Session             CognitiveSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	TaskType            string           `gorm:"size:50"`
	TaskVersion         string           `gorm:"size:20"`
	StartedAt           time.Time
	CompletedAt         time.Time
	TrialData           json.RawMessage `gorm:"type:jsonb"`
	SummaryMetrics      JSONMap         `gorm:"type:jsonb"`
	SessionIndexOverall int
	SessionIndexPerTask int
	IsAcclimatisation   bool
	IsPartial           bool
	CreatedAt           time.Time
}

// MoodRating is the structured record of a mood task submission, one per
// session at most.
type MoodRating struct {
	ID        uint             `gorm:"primaryKey"`
	SessionID uuid.UUID        `gorm:"type:uuid;uniqueIndex"`
	Session   CognitiveSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Valence   int16
	Arousal   int16
	Stress    int16
	Sharpness int16
	CreatedAt time.Time
}
