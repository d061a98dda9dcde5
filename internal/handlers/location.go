package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

type LocationHandler struct {
	Store *store.Store
}

func NewLocationHandler(st *store.Store) *LocationHandler {
	return &LocationHandler{Store: st}
}

func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.Store.ListLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) Create(c *gin.Context) {
	var req store.LocationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	location, err := h.Store.CreateLocation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}
