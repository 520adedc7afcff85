package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/gatherly/services/events/internal/api/middleware"
	"example.com/gatherly/services/events/internal/models"
	"example.com/gatherly/services/events/internal/services"
	"example.com/gatherly/services/events/internal/tracing"
)

// EventHandler handles event lifecycle HTTP requests
type EventHandler struct {
	eventService *services.EventService
	tracer       tracing.Tracer
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService, tracer tracing.Tracer) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		tracer:       tracer,
	}
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location" binding:"required"`
	CoordinatorName  string     `json:"coordinator_name" binding:"required"`
	CoordinatorEmail string     `json:"coordinator_email" binding:"required,email"`
	DateTime         time.Time  `json:"date_time" binding:"required"`
	EndTime          *time.Time `json:"end_time"`
	MaxParticipants  int        `json:"max_participants" binding:"required,min=1"`
}

// CreateEventResponse pairs the created event with its caller-facing links.
type CreateEventResponse struct {
	Event *models.Event     `json:"event"`
	Links models.EventLinks `json:"links"`
}

// CancelEventRequest is the payload for cancelling an event. Non-admin
// callers must supply the coordinator email.
type CancelEventRequest struct {
	CoordinatorEmail string `json:"coordinator_email"`
	Message          string `json:"message"`
}

// HandleCreateEvent handles POST /events
func (h *EventHandler) HandleCreateEvent(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-event")
	defer h.tracer.EndTransaction(txn)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid create event request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return
	}

	event, links, err := h.eventService.CreateEvent(c.Request.Context(), models.CreateEventParams{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		CoordinatorName:  req.CoordinatorName,
		CoordinatorEmail: req.CoordinatorEmail,
		DateTime:         req.DateTime,
		EndTime:          req.EndTime,
		MaxParticipants:  req.MaxParticipants,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateEventResponse{Event: event, Links: links})
}

// HandleListEvents handles GET /events
func (h *EventHandler) HandleListEvents(c *gin.Context) {
	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// HandleGetEvent handles GET /events/:id
func (h *EventHandler) HandleGetEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// HandleUpdateEvent handles PATCH /events/:id
func (h *EventHandler) HandleUpdateEvent(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-event")
	defer h.tracer.EndTransaction(txn)

	var params models.UpdateEventParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// HandleCancelEvent handles POST /events/:id/cancel
func (h *EventHandler) HandleCancelEvent(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-cancel-event")
	defer h.tracer.EndTransaction(txn)

	var req CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
		return
	}

	event, err := h.eventService.CancelEvent(c.Request.Context(), c.Param("id"), services.CancelParams{
		IsAdmin:          middleware.IsAdmin(c),
		CoordinatorEmail: req.CoordinatorEmail,
		Message:          req.Message,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// HandleDeleteEvent handles DELETE /events/:id (admin only)
func (h *EventHandler) HandleDeleteEvent(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin credentials required", "code": "unauthorized"})
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the handler's routes
func (h *EventHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/events", h.HandleCreateEvent)
	router.GET("/events", h.HandleListEvents)
	router.GET("/events/:id", h.HandleGetEvent)
	router.PATCH("/events/:id", h.HandleUpdateEvent)
	router.POST("/events/:id/cancel", h.HandleCancelEvent)
	router.DELETE("/events/:id", h.HandleDeleteEvent)
}
