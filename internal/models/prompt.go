package models

import "time"

// Prompt types.
const (
	PromptReactive  = "reactive"
	PromptScheduled = "scheduled"
)

// PromptEvent is one scheduled notification. Fields are set monotonically:
// scheduled_at at creation, sent_at by the dispatcher on successful
// delivery, opened_at when the participant taps the notification.
type PromptEvent struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"index:idx_prompts_user_scheduled"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ScheduledAt    time.Time `gorm:"index:idx_prompts_user_scheduled"`
	SentAt         *time.Time
	OpenedAt       *time.Time
	PromptType     string     `gorm:"size:20"`
	LinkedPlunge   *PlungeLog `gorm:"foreignKey:LinkedPlungeID;constraint:OnDelete:SET NULL"`
	LinkedPlungeID *uint
	CreatedAt      time.Time
}

// NotificationProfile holds per-user push settings and the OneSignal
// device registration. Window times are UTC wall-clock "15:04" strings.
type NotificationProfile struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"uniqueIndex"`
	User               User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OneSignalPlayerID  string `gorm:"size:255"`
	PushEnabled        bool   `gorm:"default:true"`
	MorningWindowStart string `gorm:"size:5;default:'08:00'"`
	EveningWindowStart string `gorm:"size:5;default:'18:00'"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
