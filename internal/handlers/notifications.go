package handlers

import (
	"net/http"
	"time"

	"github.com/andytwoods/iceplunge/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationsHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewNotificationsHandler(log *zap.Logger, store *repository.Store) *NotificationsHandler {
	return &NotificationsHandler{log: log, store: store}
}

// RegisterDevice records the participant's push player id, creating the
// notification profile on first registration.
func (h *NotificationsHandler) RegisterDevice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "player_id is required"})
		return
	}

	profile, err := h.store.RegisterDevice(c.Request.Context(), user.ID, req.PlayerID)
	if err != nil {
		h.log.Error("Failed to register device", zap.Error(err), zap.Uint("userID", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "push_enabled": profile.PushEnabled})
}

// UpdatePreferences sets push opt-in and the daily prompt windows.
func (h *NotificationsHandler) UpdatePreferences(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		PushEnabled        *bool  `json:"push_enabled" binding:"required"`
		MorningWindowStart string `json:"morning_window_start"`
		EveningWindowStart string `json:"evening_window_start"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid preferences payload"})
		return
	}
	for _, window := range []string{req.MorningWindowStart, req.EveningWindowStart} {
		if window == "" {
			continue
		}
		if _, err := time.Parse("15:04", window); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Window times must use HH:MM format"})
			return
		}
	}

	err := h.store.UpdateNotificationPreferences(c.Request.Context(), user.ID,
		*req.PushEnabled, req.MorningWindowStart, req.EveningWindowStart)
	if err != nil {
		h.log.Error("Failed to update preferences", zap.Error(err), zap.Uint("userID", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PromptOpened stamps the first open time on a prompt the participant
// tapped through. Later opens of the same prompt are no-ops.
func (h *NotificationsHandler) PromptOpened(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		PromptEventID uint `json:"prompt_event_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "prompt_event_id is required"})
		return
	}

	err := h.store.MarkPromptOpened(c.Request.Context(), req.PromptEventID, user.ID, time.Now().UTC())
	if err != nil {
		h.log.Error("Failed to mark prompt opened", zap.Error(err), zap.Uint("userID", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
