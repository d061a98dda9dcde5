package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	Store *store.Store
}

func NewReportHandler(st *store.Store) *ReportHandler {
	return &ReportHandler{Store: st}
}

func (h *ReportHandler) build(c *gin.Context) (report.Report, bool) {
	period, err := report.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return report.Report{}, false
	}
	ctx := c.Request.Context()
	checkIns, err := h.Store.ListCheckIns(ctx, store.CheckInFilter{})
	if err != nil {
		respondError(c, err)
		return report.Report{}, false
	}
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		respondError(c, err)
		return report.Report{}, false
	}
	locations, err := h.Store.ListLocations(ctx)
	if err != nil {
		respondError(c, err)
		return report.Report{}, false
	}
	return report.Build(checkIns, employees, locations, period, h.Store.Now()), true
}

func (h *ReportHandler) Get(c *gin.Context) {
	r, ok := h.build(c)
	if !ok {
		return
	}
	if r.TimeReports == nil {
		r.TimeReports = []report.TimeReport{}
	}
	if r.TopPerformers == nil {
		r.TopPerformers = []report.Performer{}
	}
	r.Locations = nonNil(r.Locations)
	c.JSON(http.StatusOK, r)
}

func (h *ReportHandler) Export(c *gin.Context) {
	r, ok := h.build(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, r); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("time-report-%s-%s.xlsx", r.Period, r.GeneratedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
