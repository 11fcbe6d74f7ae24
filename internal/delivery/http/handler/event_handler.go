package handler

import (
	"net/http"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(es service.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

type createEventRequest struct {
	EventType   string     `json:"event_type" binding:"required,max=64"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Severity    int        `json:"severity" binding:"required,min=1,max=5"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.eventService.CreateEvent(c.Request.Context(), entity.EventDraft{
		EventType:   req.EventType,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Severity:    req.Severity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "event created", event)
}

func (h *EventHandler) List(c *gin.Context) {
	filter := entity.EventFilter{
		EventType:  c.Query("event_type"),
		ActiveOnly: c.Query("active") == "true",
	}
	var err error
	if filter.MinSeverity, _, err = queryInt(c, "min_severity"); err != nil {
		respondError(c, err)
		return
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		respondError(c, err)
		return
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		respondError(c, err)
		return
	}

	events, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, events)
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageEvent")
	if !ok {
		return
	}
	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageEvent")
	if !ok {
		return
	}
	var patch entity.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.eventService.UpdateEvent(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "event updated", event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageEvent")
	if !ok {
		return
	}
	if err := h.eventService.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "event deleted", nil)
}
