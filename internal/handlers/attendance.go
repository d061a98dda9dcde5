package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/checkin"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/geo"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

const historyLocationCount = 5

// AttendanceHandler serves check-in, check-out and the attendance history.
type AttendanceHandler struct {
	Recorder *checkin.Recorder
	Store    *store.Store
}

// checkInRequest carries the position the device resolved. Missing
// coordinates mean the device had no fix.
type checkInRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Accuracy         float64  `json:"accuracy"`
	PermissionDenied bool     `json:"permissionDenied"`
	Notes            string   `json:"notes"`
}

type checkOutRequest struct {
	CheckInID string `json:"checkInId"`
}

func NewAttendanceHandler(recorder *checkin.Recorder, st *store.Store) *AttendanceHandler {
	return &AttendanceHandler{Recorder: recorder, Store: st}
}

func (r checkInRequest) provider() geo.Provider {
	provider := geo.StaticProvider{Denied: r.PermissionDenied}
	if r.Latitude != nil && r.Longitude != nil {
		provider.Fix = &geo.Fix{Latitude: *r.Latitude, Longitude: *r.Longitude, Accuracy: r.Accuracy}
	}
	return provider
}

func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	record, err := h.Recorder.CheckIn(c.Request.Context(), employeeID, req.provider(), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// CheckOut closes the caller's open session. An admin must name the check-in.
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req checkOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}
	}
	ctx := c.Request.Context()

	if isAdmin(c) {
		if req.CheckInID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "checkInId is required"})
			return
		}
		record, err := h.Recorder.CheckOut(ctx, req.CheckInID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
		return
	}

	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	if req.CheckInID == "" {
		record, err := h.Recorder.CheckOutEmployee(ctx, employeeID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
		return
	}

	existing, err := h.Store.ListCheckIns(ctx, store.CheckInFilter{EmployeeID: employeeID})
	if err != nil {
		respondError(c, err)
		return
	}
	owned := false
	for _, record := range existing {
		if record.ID == req.CheckInID {
			owned = true
			break
		}
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": "check-in not found"})
		return
	}
	record, err := h.Recorder.CheckOut(ctx, req.CheckInID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// List returns check-ins newest first. Admins may filter by employeeId,
// shiftId and open=true; employees see only their own.
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := store.CheckInFilter{
		EmployeeID: c.Query("employeeId"),
		ShiftID:    c.Query("shiftId"),
		OpenOnly:   c.Query("open") == "true",
	}
	if !isAdmin(c) {
		employeeID, ok := requireEmployee(c)
		if !ok {
			return
		}
		filter.EmployeeID = employeeID
	}
	records, err := h.Store.ListCheckIns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.CheckIn{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) Active(c *gin.Context) {
	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	record, open, err := h.Recorder.ActiveCheckIn(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !open {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "checkIn": record, "elapsedHours": h.Store.Now().Sub(record.CheckInTime).Hours()})
}

// History is the employee's own attendance over a period with total hours
// and the locations they worked most.
func (h *AttendanceHandler) History(c *gin.Context) {
	employeeID, ok := requireEmployee(c)
	if !ok {
		return
	}
	period, err := report.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.Recorder.History(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	filtered := report.FilterPeriod(records, period, h.Store.Now())
	if filtered == nil {
		filtered = []models.CheckIn{}
	}
	total := report.TotalHours(filtered)
	c.JSON(http.StatusOK, gin.H{
		"period":         period,
		"checkIns":       filtered,
		"totalHours":     total,
		"totalFormatted": report.FormatHours(total),
		"locationStats":  nonNil(report.HistoryLocationStats(filtered, historyLocationCount)),
		"since":          sinceValue(period, h.Store.Now()),
	})
}

func nonNil(stats []report.LocationStat) []report.LocationStat {
	if stats == nil {
		return []report.LocationStat{}
	}
	return stats
}

func sinceValue(period report.Period, now time.Time) any {
	since := period.Since(now)
	if since.IsZero() {
		return nil
	}
	return since
}
