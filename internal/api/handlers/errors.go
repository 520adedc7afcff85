package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gatherly/services/events/internal/models"
)

// respondError maps a domain error to an HTTP status and a stable error
// code, so clients can distinguish validation, policy, authorization, and
// capacity failures.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "code": "validation_failed"})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "unauthorized"})
	case errors.Is(err, models.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_cancelled"})
	case errors.Is(err, models.ErrEventCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "event_cancelled"})
	case errors.Is(err, models.ErrEventFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "event_full"})
	case errors.Is(err, models.ErrEditWindowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "edit_window_closed"})
	case errors.Is(err, models.ErrSignupWindowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "signup_window_closed"})
	case errors.Is(err, models.ErrTooCloseToStart):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "too_close_to_start"})
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal_error"})
	}
}
