package handlers

import (
	"errors"
	"net/http"

	"github.com/andytwoods/iceplunge/internal/models"
	"github.com/andytwoods/iceplunge/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// currentUser returns the participant loaded by the UserLoader middleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// respondError maps the service error taxonomy to HTTP status codes so a
// client can tell "not yours" (403) apart from "already done" (409).
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var validationErr *services.ValidationError
	var rateLimitedErr *services.RateLimitedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Reason})
	case errors.As(err, &rateLimitedErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedErr.Reason})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Session already complete"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Can only skip the current active task"})
	default:
		log.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
