package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/gatherly/services/events/internal/api/middleware"
	"example.com/gatherly/services/events/internal/models"
	"example.com/gatherly/services/events/internal/services"
	"example.com/gatherly/services/events/internal/tracing"
)

// SignupHandler handles signup HTTP requests
type SignupHandler struct {
	eventService *services.EventService
	tracer       tracing.Tracer
}

// NewSignupHandler creates a new signup handler
func NewSignupHandler(eventService *services.EventService, tracer tracing.Tracer) *SignupHandler {
	return &SignupHandler{
		eventService: eventService,
		tracer:       tracer,
	}
}

// SignupRequest is the payload for a signup attempt.
type SignupRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	WaiverAccepted bool   `json:"waiver_accepted"`
}

// HandleSignup handles POST /events/:id/signups
func (h *SignupHandler) HandleSignup(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-signup")
	defer h.tracer.EndTransaction(txn)

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return
	}

	signup, err := h.eventService.Signup(c.Request.Context(), c.Param("id"), models.SignupParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		WaiverAccepted: req.WaiverAccepted,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, signup)
}

// HandleListSignups handles GET /events/:id/signups
func (h *SignupHandler) HandleListSignups(c *gin.Context) {
	signups, err := h.eventService.ListSignups(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signups": signups})
}

// HandleRemoveSignup handles DELETE /events/:id/signups/:signupID. The
// requester must be the event owner (coordinator_email query parameter) or
// an admin.
func (h *SignupHandler) HandleRemoveSignup(c *gin.Context) {
	signupID, err := strconv.ParseInt(c.Param("signupID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signup id", "code": "validation_failed"})
		return
	}

	err = h.eventService.RemoveSignup(
		c.Request.Context(),
		c.Param("id"),
		signupID,
		c.Query("coordinator_email"),
		middleware.IsAdmin(c),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the handler's routes
func (h *SignupHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/events/:id/signups", h.HandleSignup)
	router.GET("/events/:id/signups", h.HandleListSignups)
	router.DELETE("/events/:id/signups/:signupID", h.HandleRemoveSignup)
}
