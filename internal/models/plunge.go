package models

import "time"

// Immersion depths.
const (
	DepthWaist = "waist"
	DepthChest = "chest"
	DepthNeck  = "neck"
)

// Plunge contexts.
const (
	ContextPlungePool  = "plunge_pool"
	ContextBath        = "bath"
	ContextLake        = "lake"
	ContextSea         = "sea"
	ContextCryotherapy = "cryotherapy"
	ContextOther       = "other"
)

// PlungeLog is one cold-exposure event. Only Timestamp and UserID are
// load-bearing for the session engine and scheduler; the rest is study
// covariate data persisted verbatim.
type PlungeLog struct {
	ID                     uint `gorm:"primaryKey"`
	UserID                 uint `gorm:"index:idx_plunges_user_timestamp"`
	User                   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Timestamp              time.Time `gorm:"index:idx_plunges_user_timestamp"`
	DurationMinutes        int16
	WaterTempCelsius       *float64
	TempMeasured           bool
	ImmersionDepth         string `gorm:"size:10"`
	Context                string `gorm:"size:20"`
	BreathingTechnique     string `gorm:"size:100"`
	PerceivedIntensity     int16
	PreHotTreatment        *string `gorm:"size:20"`
	PreHotTreatmentMinutes *int16
	ExerciseTiming         *string `gorm:"size:10"`
	ExerciseType           *string `gorm:"size:10"`
	ExerciseMinutes        *int16
	CreatedAt              time.Time
}
