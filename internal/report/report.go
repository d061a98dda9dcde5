// Package report turns the check-in log into worked hours: per session, per
// employee and location over a period, with overtime and the rankings shown
// on the admin and employee screens. Everything here is a pure function of
// its inputs.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

// StandardShiftHours is the regular-time allowance per shift.
const StandardShiftHours = 8

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts week, month or all. An empty value means week.
func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodAll:
		return PeriodAll, nil
	}
	return "", apperr.Validation("period must be week, month or all")
}

// Since is the earliest check-in time included in the period, or the zero
// time for all.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour)
	}
	return time.Time{}
}

// HoursWorked is the closed session's length in hours. Open sessions count 0.
func HoursWorked(checkIn models.CheckIn) float64 {
	if checkIn.CheckOutTime == nil {
		return 0
	}
	return checkIn.CheckOutTime.Sub(checkIn.CheckInTime).Hours()
}

func TotalHours(checkIns []models.CheckIn) float64 {
	total := 0.0
	for _, checkIn := range checkIns {
		total += HoursWorked(checkIn)
	}
	return total
}

// Overtime splits total into regular time, capped at StandardShiftHours per
// shift, and the excess.
func Overtime(total float64, shiftCount int) (regular, overtime float64) {
	regular = math.Min(total, float64(StandardShiftHours*shiftCount))
	return regular, math.Max(0, total-regular)
}

// FilterPeriod keeps check-ins that started within the period ending at now.
func FilterPeriod(checkIns []models.CheckIn, period Period, now time.Time) []models.CheckIn {
	if period == PeriodAll {
		return append([]models.CheckIn(nil), checkIns...)
	}
	since := period.Since(now)
	var kept []models.CheckIn
	for _, checkIn := range checkIns {
		if !checkIn.CheckInTime.Before(since) {
			kept = append(kept, checkIn)
		}
	}
	return kept
}

type TimeReport struct {
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName"`
	LocationID   string           `json:"locationId"`
	LocationName string           `json:"locationName"`
	Period       Period           `json:"period"`
	HoursWorked  float64          `json:"hoursWorked"`
	Overtime     float64          `json:"overtime,omitempty"`
	CheckIns     []models.CheckIn `json:"checkIns"`
}

// BuildTimeReports produces one report per employee and location with at
// least one check-in in the period, ordered by hours worked, highest first.
// Each check-in counts as one shift for the overtime allowance.
func BuildTimeReports(checkIns []models.CheckIn, employees []models.Employee, locations []models.Location, period Period, now time.Time) []TimeReport {
	type pair struct{ employeeID, locationID string }
	grouped := map[pair][]models.CheckIn{}
	for _, checkIn := range FilterPeriod(checkIns, period, now) {
		key := pair{checkIn.EmployeeID, checkIn.LocationID}
		grouped[key] = append(grouped[key], checkIn)
	}

	var reports []TimeReport
	for _, employee := range employees {
		for _, location := range locations {
			group := grouped[pair{employee.ID, location.ID}]
			if len(group) == 0 {
				continue
			}
			hours := TotalHours(group)
			_, overtime := Overtime(hours, len(group))
			reports = append(reports, TimeReport{
				EmployeeID:   employee.ID,
				EmployeeName: employee.Name,
				LocationID:   location.ID,
				LocationName: location.Name,
				Period:       period,
				HoursWorked:  hours,
				Overtime:     overtime,
				CheckIns:     group,
			})
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].HoursWorked > reports[j].HoursWorked
	})
	return reports
}

type Summary struct {
	TotalHours     float64 `json:"totalHours"`
	TotalOvertime  float64 `json:"totalOvertime"`
	TotalEmployees int     `json:"totalEmployees"`
	TotalLocations int     `json:"totalLocations"`
}

func Totals(reports []TimeReport) Summary {
	var summary Summary
	employees := map[string]bool{}
	locations := map[string]bool{}
	for _, r := range reports {
		summary.TotalHours += r.HoursWorked
		summary.TotalOvertime += r.Overtime
		employees[r.EmployeeID] = true
		locations[r.LocationID] = true
	}
	summary.TotalEmployees = len(employees)
	summary.TotalLocations = len(locations)
	return summary
}

type Performer struct {
	EmployeeID    string  `json:"id"`
	Name          string  `json:"name"`
	Hours         float64 `json:"hours"`
	LocationCount int     `json:"locationCount"`
}

// TopPerformers ranks employees by hours across all locations. Ties keep the
// order in which employees first appear in reports.
func TopPerformers(reports []TimeReport, n int) []Performer {
	var performers []Performer
	index := map[string]int{}
	locations := map[string]map[string]bool{}
	for _, r := range reports {
		i, ok := index[r.EmployeeID]
		if !ok {
			i = len(performers)
			index[r.EmployeeID] = i
			performers = append(performers, Performer{EmployeeID: r.EmployeeID, Name: r.EmployeeName})
			locations[r.EmployeeID] = map[string]bool{}
		}
		performers[i].Hours += r.HoursWorked
		locations[r.EmployeeID][r.LocationID] = true
	}
	for i := range performers {
		performers[i].LocationCount = len(locations[performers[i].EmployeeID])
	}
	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Hours > performers[j].Hours
	})
	if n > 0 && len(performers) > n {
		performers = performers[:n]
	}
	return performers
}

type LocationStat struct {
	LocationID    string  `json:"id"`
	Name          string  `json:"name"`
	Hours         float64 `json:"hours"`
	EmployeeCount int     `json:"employeeCount,omitempty"`
	CheckInCount  int     `json:"count,omitempty"`
}

// LocationBreakdown sums hours per location and counts distinct employees,
// highest hours first.
func LocationBreakdown(reports []TimeReport) []LocationStat {
	var stats []LocationStat
	index := map[string]int{}
	employees := map[string]map[string]bool{}
	for _, r := range reports {
		i, ok := index[r.LocationID]
		if !ok {
			i = len(stats)
			index[r.LocationID] = i
			stats = append(stats, LocationStat{LocationID: r.LocationID, Name: r.LocationName})
			employees[r.LocationID] = map[string]bool{}
		}
		stats[i].Hours += r.HoursWorked
		employees[r.LocationID][r.EmployeeID] = true
	}
	for i := range stats {
		stats[i].EmployeeCount = len(employees[stats[i].LocationID])
	}
	sortByHours(stats)
	return stats
}

// HistoryLocationStats groups an employee's closed sessions by location and
// returns the n locations with the most hours.
func HistoryLocationStats(checkIns []models.CheckIn, n int) []LocationStat {
	var stats []LocationStat
	index := map[string]int{}
	for _, checkIn := range checkIns {
		if checkIn.Open() {
			continue
		}
		i, ok := index[checkIn.LocationID]
		if !ok {
			i = len(stats)
			index[checkIn.LocationID] = i
			stats = append(stats, LocationStat{LocationID: checkIn.LocationID, Name: checkIn.LocationName})
		}
		stats[i].Hours += HoursWorked(checkIn)
		stats[i].CheckInCount++
	}
	sortByHours(stats)
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

func sortByHours(stats []LocationStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Hours > stats[j].Hours
	})
}

type EmployeeStat struct {
	EmployeeID    string     `json:"employeeId"`
	Name          string     `json:"name"`
	TotalHours    float64    `json:"totalHours"`
	TotalCheckIns int        `json:"totalShifts"`
	LastCheckIn   *time.Time `json:"lastCheckIn,omitempty"`
}

// EmployeeStats summarises every employee's whole check-in history, in the
// order employees are given.
func EmployeeStats(employees []models.Employee, checkIns []models.CheckIn) []EmployeeStat {
	byEmployee := map[string][]models.CheckIn{}
	for _, checkIn := range checkIns {
		byEmployee[checkIn.EmployeeID] = append(byEmployee[checkIn.EmployeeID], checkIn)
	}
	stats := make([]EmployeeStat, 0, len(employees))
	for _, employee := range employees {
		own := byEmployee[employee.ID]
		stat := EmployeeStat{
			EmployeeID:    employee.ID,
			Name:          employee.Name,
			TotalHours:    TotalHours(own),
			TotalCheckIns: len(own),
		}
		for _, checkIn := range own {
			if stat.LastCheckIn == nil || checkIn.CheckInTime.After(*stat.LastCheckIn) {
				last := checkIn.CheckInTime
				stat.LastCheckIn = &last
			}
		}
		stats = append(stats, stat)
	}
	return stats
}

// HoursThisWeek sums the scheduled length of completed shifts dated in the
// Sunday to Saturday week containing today.
func HoursThisWeek(shifts []models.Shift, today time.Time) float64 {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	first := day.AddDate(0, 0, -int(day.Weekday())).Format(models.DateLayout)
	last := day.AddDate(0, 0, 6-int(day.Weekday())).Format(models.DateLayout)

	total := 0.0
	for _, shift := range shifts {
		if shift.Status != models.ShiftCompleted || shift.Date < first || shift.Date > last {
			continue
		}
		start, end, err := shift.Window(time.UTC)
		if err != nil {
			continue
		}
		total += end.Sub(start).Hours()
	}
	return total
}

// FormatHours renders hours as "Xh Ym" with minutes rounded to the nearest
// minute.
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	whole := math.Floor(hours)
	minutes := math.Round((hours - whole) * 60)
	if minutes >= 60 {
		whole++
		minutes -= 60
	}
	return fmt.Sprintf("%dh %dm", int(whole), int(minutes))
}

// Report is everything the admin reports screen shows for one period.
type Report struct {
	Period        Period         `json:"period"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Summary       Summary        `json:"summary"`
	TopPerformers []Performer    `json:"topPerformers"`
	Locations     []LocationStat `json:"locationStats"`
	TimeReports   []TimeReport   `json:"timeReports"`
}

func Build(checkIns []models.CheckIn, employees []models.Employee, locations []models.Location, period Period, now time.Time) Report {
	reports := BuildTimeReports(checkIns, employees, locations, period, now)
	return Report{
		Period:        period,
		GeneratedAt:   now,
		Summary:       Totals(reports),
		TopPerformers: TopPerformers(reports, 5),
		Locations:     LocationBreakdown(reports),
		TimeReports:   reports,
	}
}
