package handlers

import (
	"net/http"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"
	"github.com/andytwoods/iceplunge/internal/repository"
	"github.com/andytwoods/iceplunge/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlungeHandler struct {
	log       *zap.Logger
	store     *repository.Store
	scheduler *services.NotificationScheduler
}

func NewPlungeHandler(log *zap.Logger, store *repository.Store, scheduler *services.NotificationScheduler) *PlungeHandler {
	return &PlungeHandler{log: log, store: store, scheduler: scheduler}
}

type createPlungeRequest struct {
	Timestamp              time.Time `json:"timestamp" binding:"required"`
	DurationMinutes        int16     `json:"duration_minutes" binding:"required"`
	WaterTempCelsius       *float64  `json:"water_temp_celsius"`
	TempMeasured           bool      `json:"temp_measured"`
	ImmersionDepth         string    `json:"immersion_depth" binding:"required"`
	Context                string    `json:"context" binding:"required"`
	BreathingTechnique     string    `json:"breathing_technique"`
	PerceivedIntensity     int16     `json:"perceived_intensity" binding:"required"`
	PreHotTreatment        *string   `json:"pre_hot_treatment"`
	PreHotTreatmentMinutes *int16    `json:"pre_hot_treatment_minutes"`
	ExerciseTiming         *string   `json:"exercise_timing"`
	ExerciseType           *string   `json:"exercise_type"`
	ExerciseMinutes        *int16    `json:"exercise_minutes"`
}

// Create records a plunge and then schedules reactive prompts for it.
// Scheduling failures never fail the plunge write; they are logged and
// the plunge response is returned as normal.
func (h *PlungeHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createPlungeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid plunge payload"})
		return
	}

	plunge := &models.PlungeLog{
		UserID:                 user.ID,
		Timestamp:              req.Timestamp.UTC(),
		DurationMinutes:        req.DurationMinutes,
		WaterTempCelsius:       req.WaterTempCelsius,
		TempMeasured:           req.TempMeasured,
		ImmersionDepth:         req.ImmersionDepth,
		Context:                req.Context,
		BreathingTechnique:     req.BreathingTechnique,
		PerceivedIntensity:     req.PerceivedIntensity,
		PreHotTreatment:        req.PreHotTreatment,
		PreHotTreatmentMinutes: req.PreHotTreatmentMinutes,
		ExerciseTiming:         req.ExerciseTiming,
		ExerciseType:           req.ExerciseType,
		ExerciseMinutes:        req.ExerciseMinutes,
	}

	if err := h.store.CreatePlunge(c.Request.Context(), plunge); err != nil {
		h.log.Error("Failed to create plunge", zap.Error(err), zap.Uint("userID", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.scheduleReactive(c, plunge)

	c.JSON(http.StatusCreated, gin.H{
		"id":        plunge.ID,
		"timestamp": plunge.Timestamp,
	})
}

func (h *PlungeHandler) scheduleReactive(c *gin.Context, plunge *models.PlungeLog) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Reactive prompt scheduling panicked",
				zap.Any("panic", r), zap.Uint("plungeID", plunge.ID))
		}
	}()
	if _, err := h.scheduler.ScheduleReactivePrompts(c.Request.Context(), plunge); err != nil {
		h.log.Error("Reactive prompt scheduling failed",
			zap.Error(err), zap.Uint("plungeID", plunge.ID))
	}
}
