package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

type EventHandler struct {
	Store *store.Store
}

func NewEventHandler(st *store.Store) *EventHandler {
	return &EventHandler{Store: st}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.Store.ListCalendarEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req store.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	event, err := h.Store.CreateCalendarEvent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteCalendarEvent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
