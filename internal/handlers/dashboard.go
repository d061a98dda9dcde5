package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/lifecycle"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

type DashboardHandler struct {
	Store     *store.Store
	Lifecycle *lifecycle.Service
}

func NewDashboardHandler(st *store.Store, lc *lifecycle.Service) *DashboardHandler {
	return &DashboardHandler{Store: st, Lifecycle: lc}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	var employeeCount, activeEmployees, locationCount int
	var todayShifts, openCheckIns, upcomingEvents int
	var weekHours float64
	statusCounts := map[models.ShiftStatus]int{}
	today := h.Lifecycle.Today()
	now := h.Store.Now()

	err := h.Store.View(c.Request.Context(), func(tx *store.Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		employeeCount = len(employees)
		for _, employee := range employees {
			if employee.IsActive {
				activeEmployees++
			}
		}
		locations, err := tx.Locations()
		if err != nil {
			return err
		}
		locationCount = len(locations)

		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		for _, shift := range shifts {
			if shift.Date == today {
				todayShifts++
				statusCounts[shift.Status]++
			}
		}

		checkIns, err := tx.CheckIns()
		if err != nil {
			return err
		}
		for _, record := range checkIns {
			if record.Open() {
				openCheckIns++
			}
		}
		weekHours = report.TotalHours(report.FilterPeriod(checkIns, report.PeriodWeek, now))

		events, err := tx.Events()
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.Date >= today {
				upcomingEvents++
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":       employeeCount,
		"activeEmployees": activeEmployees,
		"locations":       locationCount,
		"todayShifts":     todayShifts,
		"todayByStatus":   statusCounts,
		"openCheckIns":    openCheckIns,
		"upcomingEvents":  upcomingEvents,
		"weekHours":       weekHours,
	})
}
