package report

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

var now = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func session(id, employeeID, locationID string, start time.Time, hours float64) models.CheckIn {
	checkIn := models.CheckIn{ID: id, EmployeeID: employeeID, LocationID: locationID, LocationName: "site " + locationID, CheckInTime: start}
	if hours >= 0 {
		out := start.Add(time.Duration(hours * float64(time.Hour)))
		checkIn.CheckOutTime = &out
	}
	return checkIn
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScenarioFullDay(t *testing.T) {
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	out := time.Date(2024, time.January, 1, 17, 0, 0, 0, time.UTC)
	checkIn := models.CheckIn{CheckInTime: start, CheckOutTime: &out}
	if hours := HoursWorked(checkIn); hours != 8 {
		t.Fatalf("expected 8 hours, got %v", hours)
	}
	if got := FormatHours(8); got != "8h 0m" {
		t.Fatalf("expected 8h 0m, got %q", got)
	}
}

func TestOpenSessionCountsZero(t *testing.T) {
	open := session("c1", "e1", "l1", now, -1)
	if HoursWorked(open) != 0 {
		t.Fatalf("open session should count 0")
	}
	closed := session("c2", "e1", "l1", now, 2.5)
	if total := TotalHours([]models.CheckIn{open, closed}); total != 2.5 {
		t.Fatalf("expected 2.5, got %v", total)
	}
}

func TestOvertimePolicy(t *testing.T) {
	cases := []struct {
		name          string
		total         float64
		shifts        int
		regular, over float64
	}{
		{"two short sessions", 3.5 + 4.75, 2, 8.25, 0},
		{"three three-hour shifts", 9, 3, 9, 0},
		{"one long shift", 10, 1, 8, 2},
		{"no shifts", 4, 0, 0, 4},
	}
	for _, tc := range cases {
		regular, over := Overtime(tc.total, tc.shifts)
		if !near(regular, tc.regular) || !near(over, tc.over) {
			t.Fatalf("%s: expected %v/%v, got %v/%v", tc.name, tc.regular, tc.over, regular, over)
		}
	}
}

func TestFormatHoursCarriesRoundedMinutes(t *testing.T) {
	cases := map[float64]string{
		0:            "0h 0m",
		8.25:         "8h 15m",
		1.5:          "1h 30m",
		2 + 59.99/60: "3h 0m",
		0.999999:     "1h 0m",
		4.75:         "4h 45m",
		-1:           "0h 0m",
		7 + 59.4/60:  "7h 59m",
	}
	for hours, want := range cases {
		if got := FormatHours(hours); got != want {
			t.Fatalf("FormatHours(%v) = %q, want %q", hours, got, want)
		}
	}
}

func TestFilterPeriodUsesCheckInTime(t *testing.T) {
	checkIns := []models.CheckIn{
		session("recent", "e1", "l1", now.Add(-24*time.Hour), 1),
		session("edge", "e1", "l1", now.Add(-7*24*time.Hour), 1),
		session("old", "e1", "l1", now.Add(-8*24*time.Hour), 1),
		session("ancient", "e1", "l1", now.Add(-40*24*time.Hour), 1),
	}
	if got := FilterPeriod(checkIns, PeriodWeek, now); len(got) != 2 {
		t.Fatalf("expected 2 in week, got %d", len(got))
	}
	if got := FilterPeriod(checkIns, PeriodMonth, now); len(got) != 3 {
		t.Fatalf("expected 3 in month, got %d", len(got))
	}
	if got := FilterPeriod(checkIns, PeriodAll, now); len(got) != 4 {
		t.Fatalf("expected 4 overall, got %d", len(got))
	}
}

func TestParsePeriod(t *testing.T) {
	for raw, want := range map[string]Period{"": PeriodWeek, "Week": PeriodWeek, "month": PeriodMonth, " all ": PeriodAll} {
		got, err := ParsePeriod(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePeriod(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParsePeriod("year"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func fixtures() ([]models.Employee, []models.Location, []models.CheckIn) {
	employees := []models.Employee{{ID: "e1", Name: "Ann"}, {ID: "e2", Name: "Bob"}, {ID: "e3", Name: "Cy"}}
	locations := []models.Location{{ID: "l1", Name: "Mall"}, {ID: "l2", Name: "Office"}}
	day := now.Add(-48 * time.Hour)
	checkIns := []models.CheckIn{
		session("a1", "e1", "l1", day, 3.5),
		session("a2", "e1", "l1", day.Add(24*time.Hour), 4.75),
		session("a3", "e1", "l2", day, 2),
		session("b1", "e2", "l1", day, 10),
		session("b2", "e2", "l2", day, -1),
		session("c1", "e3", "l1", now.Add(-20*24*time.Hour), 6),
	}
	return employees, locations, checkIns
}

func TestBuildTimeReports(t *testing.T) {
	employees, locations, checkIns := fixtures()
	reports := BuildTimeReports(checkIns, employees, locations, PeriodWeek, now)
	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	if reports[0].EmployeeID != "e2" || reports[0].LocationID != "l1" || reports[0].Overtime != 2 {
		t.Fatalf("expected bob at the mall first with 2h overtime, got %+v", reports[0])
	}
	if reports[1].EmployeeID != "e1" || reports[1].LocationID != "l1" || !near(reports[1].HoursWorked, 8.25) || reports[1].Overtime != 0 {
		t.Fatalf("expected ann at the mall with 8.25h, got %+v", reports[1])
	}
	last := reports[3]
	if last.EmployeeID != "e2" || last.LocationID != "l2" || last.HoursWorked != 0 || len(last.CheckIns) != 1 {
		t.Fatalf("expected open-only report last, got %+v", last)
	}

	summary := Totals(reports)
	if !near(summary.TotalHours, 20.25) || summary.TotalOvertime != 2 || summary.TotalEmployees != 2 || summary.TotalLocations != 2 {
		t.Fatalf("unexpected totals %+v", summary)
	}

	monthly := BuildTimeReports(checkIns, employees, locations, PeriodMonth, now)
	if len(monthly) != 5 {
		t.Fatalf("expected cy included for the month, got %d reports", len(monthly))
	}
}

func TestTopPerformersAndLocationBreakdown(t *testing.T) {
	employees, locations, checkIns := fixtures()
	reports := BuildTimeReports(checkIns, employees, locations, PeriodAll, now)

	top := TopPerformers(reports, 2)
	if len(top) != 2 || top[0].EmployeeID != "e1" || !near(top[0].Hours, 10.25) || top[0].LocationCount != 2 {
		t.Fatalf("unexpected leader %+v", top)
	}
	if top[1].EmployeeID != "e2" || top[1].Hours != 10 {
		t.Fatalf("unexpected runner-up %+v", top[1])
	}

	stats := LocationBreakdown(reports)
	if len(stats) != 2 || stats[0].LocationID != "l1" || !near(stats[0].Hours, 24.25) || stats[0].EmployeeCount != 3 {
		t.Fatalf("unexpected location stats %+v", stats)
	}
	if stats[1].EmployeeCount != 2 {
		t.Fatalf("expected two employees at the office, got %+v", stats[1])
	}
}

func TestTopPerformersStableOnTies(t *testing.T) {
	reports := []TimeReport{
		{EmployeeID: "x", HoursWorked: 5, LocationID: "l1"},
		{EmployeeID: "y", HoursWorked: 5, LocationID: "l1"},
		{EmployeeID: "z", HoursWorked: 5, LocationID: "l1"},
	}
	top := TopPerformers(reports, 5)
	if top[0].EmployeeID != "x" || top[1].EmployeeID != "y" || top[2].EmployeeID != "z" {
		t.Fatalf("ties should keep first-seen order, got %+v", top)
	}
}

func TestHistoryLocationStats(t *testing.T) {
	_, _, checkIns := fixtures()
	stats := HistoryLocationStats(checkIns, 1)
	if len(stats) != 1 || stats[0].LocationID != "l1" || stats[0].CheckInCount != 4 || !near(stats[0].Hours, 24.25) {
		t.Fatalf("unexpected history stats %+v", stats)
	}
	all := HistoryLocationStats(checkIns, 0)
	if len(all) != 2 || all[1].CheckInCount != 1 {
		t.Fatalf("open sessions must be skipped, got %+v", all)
	}
}

func TestEmployeeStats(t *testing.T) {
	employees, _, checkIns := fixtures()
	employees = append(employees, models.Employee{ID: "e4", Name: "Dee"})
	stats := EmployeeStats(employees, checkIns)
	if len(stats) != 4 {
		t.Fatalf("expected a row per employee, got %d", len(stats))
	}
	if !near(stats[0].TotalHours, 10.25) || stats[0].TotalCheckIns != 3 || !stats[0].LastCheckIn.Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("unexpected stats for ann %+v", stats[0])
	}
	if stats[3].TotalCheckIns != 0 || stats[3].LastCheckIn != nil {
		t.Fatalf("expected empty stats for dee, got %+v", stats[3])
	}
}

func TestHoursThisWeek(t *testing.T) {
	wednesday := time.Date(2024, time.January, 10, 15, 0, 0, 0, time.UTC)
	shifts := []models.Shift{
		{Date: "2024-01-07", StartTime: "09:00", EndTime: "17:00", Status: models.ShiftCompleted},
		{Date: "2024-01-13", StartTime: "22:00", EndTime: "02:00", Status: models.ShiftCompleted},
		{Date: "2024-01-10", StartTime: "09:00", EndTime: "12:00", Status: models.ShiftScheduled},
		{Date: "2024-01-06", StartTime: "09:00", EndTime: "17:00", Status: models.ShiftCompleted},
		{Date: "2024-01-14", StartTime: "09:00", EndTime: "17:00", Status: models.ShiftCompleted},
	}
	if hours := HoursThisWeek(shifts, wednesday); hours != 12 {
		t.Fatalf("expected 12 hours, got %v", hours)
	}
}

func TestWriteXLSX(t *testing.T) {
	employees, locations, checkIns := fixtures()
	r := Build(checkIns, employees, locations, PeriodWeek, now)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, r); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(detailSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != len(r.TimeReports)+1 || rows[0][0] != "Employee" || rows[1][0] != "Bob" || rows[1][5] != "10h 0m" {
		t.Fatalf("unexpected detail rows %v", rows)
	}
	hours, err := f.GetCellValue(summarySheet, "B3")
	if err != nil || hours != "20.25" {
		t.Fatalf("unexpected total hours cell %q err=%v", hours, err)
	}
}
