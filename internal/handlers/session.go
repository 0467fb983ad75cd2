package handlers

import (
	"io"
	"net/http"

	"github.com/andytwoods/iceplunge/internal/models"
	"github.com/andytwoods/iceplunge/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionPointerKey is the cookie-session key referencing the
// participant's current in-progress CognitiveSession.
const sessionPointerKey = "current_cognitive_session_id"

type SessionHandler struct {
	log      *zap.Logger
	sessions *services.SessionService
}

func NewSessionHandler(log *zap.Logger, sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{log: log, sessions: sessionService}
}

// Start creates a voluntary session, or resumes the one the session
// pointer references.
func (h *SessionHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		PromptEventID *uint `json:"prompt_event_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid JSON"})
			return
		}
	}

	browserSession := sessions.Default(c)
	pointer, _ := browserSession.Get(sessionPointerKey).(string)

	cog, err := h.sessions.StartOrResume(c.Request.Context(), user, pointer, req.PromptEventID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	browserSession.Set(sessionPointerKey, cog.ID.String())
	if err := browserSession.Save(); err != nil {
		h.log.Error("Failed to save session pointer", zap.Error(err))
	}

	nextTask, err := h.sessions.NextPendingTask(c.Request.Context(), cog)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":        cog.ID,
		"task_order":        cog.TaskOrder,
		"next_task":         nullableTask(nextTask),
		"is_practice":       cog.IsPractice,
		"derived_variables": cog.DerivedVariables,
	})
}

// StartPractice creates a single-task practice session in a fresh sitting.
// Practice results are saved but flagged so analyses exclude them.
func (h *SessionHandler) StartPractice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cog, err := h.sessions.CreatePracticeSession(c.Request.Context(), user, c.Param("taskType"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":  cog.ID,
		"task_order":  cog.TaskOrder,
		"is_practice": true,
	})
}

// Submit runs the task-result submission pipeline.
func (h *SessionHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid JSON"})
		return
	}

	result, err := h.sessions.SubmitTaskResult(c.Request.Context(), user, body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":         true,
		"next_task":  nullableTask(result.NextTask),
		"is_partial": result.IsPartial,
	})
}

// Skip marks the current pending task as skipped.
func (h *SessionHandler) Skip(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		TaskType  string `json:"task_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.SessionID == "" || req.TaskType == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "session_id and task_type are required"})
		return
	}

	nextTask, err := h.sessions.SkipTask(c.Request.Context(), user, req.SessionID, req.TaskType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "next_task": nullableTask(nextTask)})
}

// Meta stores timezone offset and device metadata reported by the task
// runner once per page load.
func (h *SessionHandler) Meta(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		SessionID             string         `json:"session_id"`
		TimezoneOffsetMinutes *int16         `json:"timezone_offset_minutes"`
		DeviceMeta            models.JSONMap `json:"device_meta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "session_id is required"})
		return
	}

	err := h.sessions.UpdateSessionMeta(c.Request.Context(), user, req.SessionID, req.TimezoneOffsetMinutes, req.DeviceMeta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Complete transitions the session to complete and clears the session
// pointer so the next start creates a fresh session.
func (h *SessionHandler) Complete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cog, err := h.sessions.Complete(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	browserSession := sessions.Default(c)
	browserSession.Delete(sessionPointerKey)
	if err := browserSession.Save(); err != nil {
		h.log.Error("Failed to clear session pointer", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":        cog.ID,
		"completion_status": cog.CompletionStatus,
		"completed_at":      cog.CompletedAt,
		"quality_flags":     cog.QualityFlags,
	})
}

func nullableTask(task string) any {
	if task == "" {
		return nil
	}
	return task
}
