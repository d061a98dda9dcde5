package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/lifecycle"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

const upcomingShiftCount = 5

type ShiftHandler struct {
	Store     *store.Store
	Lifecycle *lifecycle.Service
}

type sweepRequest struct {
	Before string `json:"before"`
}

func NewShiftHandler(st *store.Store, lc *lifecycle.Service) *ShiftHandler {
	return &ShiftHandler{Store: st, Lifecycle: lc}
}

// List returns every shift to an admin, filtered by the employeeId, date and
// status query parameters. Employees only ever see their own.
func (h *ShiftHandler) List(c *gin.Context) {
	filter := store.ShiftFilter{
		EmployeeID: c.Query("employeeId"),
		Date:       c.Query("date"),
		Status:     models.ShiftStatus(c.Query("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if !isAdmin(c) {
		employeeID, ok := requireEmployee(c)
		if !ok {
			return
		}
		filter.EmployeeID = employeeID
	}

	shifts, err := h.Store.ListShifts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	c.JSON(http.StatusOK, shifts)
}

func (h *ShiftHandler) Create(c *gin.Context) {
	var req store.ShiftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	shift, err := h.Store.CreateShift(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shift)
}

func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteShift(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ShiftHandler) MarkMissed(c *gin.Context) {
	shift, err := h.Lifecycle.MarkMissed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// SweepMissed marks scheduled shifts that ended before the optional RFC 3339
// "before" instant, or before now, as missed.
func (h *ShiftHandler) SweepMissed(c *gin.Context) {
	var req sweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}
	}
	cutoff := h.Store.Now()
	if req.Before != "" {
		parsed, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			respondError(c, apperr.Validation("before must be an RFC 3339 time"))
			return
		}
		cutoff = parsed
	}

	swept, err := h.Lifecycle.SweepMissed(c.Request.Context(), cutoff)
	if err != nil {
		respondError(c, err)
		return
	}
	if swept == nil {
		swept = []models.Shift{}
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(swept), "shifts": swept})
}

// Today returns the shift the employee would check into right now.
func (h *ShiftHandler) Today(c *gin.Context) {
	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	shift, err := h.Lifecycle.ShiftForToday(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// Schedule is the employee's schedule screen: today's shifts, the next few
// upcoming ones and hours completed this week.
func (h *ShiftHandler) Schedule(c *gin.Context) {
	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	shifts, err := h.Store.ListShifts(c.Request.Context(), store.ShiftFilter{EmployeeID: employeeID})
	if err != nil {
		respondError(c, err)
		return
	}

	today := h.Lifecycle.Today()
	todays := []models.Shift{}
	for _, shift := range shifts {
		if shift.Date == today {
			todays = append(todays, shift)
		}
	}
	upcoming := lifecycle.UpcomingShifts(shifts, employeeID, today, upcomingShiftCount)
	if upcoming == nil {
		upcoming = []models.Shift{}
	}
	todayTime, _ := time.Parse(models.DateLayout, today)

	c.JSON(http.StatusOK, gin.H{
		"today":         todays,
		"upcoming":      upcoming,
		"totalShifts":   len(shifts),
		"hoursThisWeek": report.HoursThisWeek(shifts, todayTime),
	})
}
