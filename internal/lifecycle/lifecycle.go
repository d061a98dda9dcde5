// Package lifecycle owns shift status: which transitions are legal, which
// shift an employee is working today, and the administrator commands that
// mark shifts as missed.
package lifecycle

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

var allowed = map[models.ShiftStatus][]models.ShiftStatus{
	models.ShiftScheduled:  {models.ShiftInProgress, models.ShiftMissed},
	models.ShiftInProgress: {models.ShiftCompleted},
}

// Transition moves shift to status to, stamping UpdatedAt. Anything other
// than scheduled→in-progress, in-progress→completed or scheduled→missed is a
// conflict and leaves shift unchanged.
func Transition(shift *models.Shift, to models.ShiftStatus, now time.Time) error {
	for _, next := range allowed[shift.Status] {
		if next == to {
			shift.Status = to
			shift.UpdatedAt = now
			return nil
		}
	}
	return apperr.Conflict("shift is %s and cannot become %s", shift.Status, to)
}

// FindShiftForToday picks the employee's shift on today that is still open to
// work: scheduled or in progress. Completed and missed shifts are final. When
// several qualify the earliest created wins, then the lowest id.
func FindShiftForToday(shifts []models.Shift, employeeID, today string) (models.Shift, bool) {
	var best models.Shift
	found := false
	for _, shift := range shifts {
		if shift.EmployeeID != employeeID || shift.Date != today || final(shift.Status) {
			continue
		}
		if !found || earlier(shift, best) {
			best = shift
			found = true
		}
	}
	return best, found
}

func final(status models.ShiftStatus) bool {
	return status == models.ShiftCompleted || status == models.ShiftMissed
}

func earlier(a, b models.Shift) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Status derives the status the check-in log implies for a shift. ok is false
// when no check-in references the shift, in which case either scheduled or
// missed is consistent.
func Status(shiftID string, checkIns []models.CheckIn) (status models.ShiftStatus, ok bool) {
	seen := false
	for _, checkIn := range checkIns {
		if checkIn.ShiftID != shiftID {
			continue
		}
		if checkIn.Open() {
			return models.ShiftInProgress, true
		}
		seen = true
	}
	if seen {
		return models.ShiftCompleted, true
	}
	return "", false
}

type Mismatch struct {
	ShiftID string             `json:"shiftId"`
	Stored  models.ShiftStatus `json:"stored"`
	Derived models.ShiftStatus `json:"derived"`
}

// Reconcile lists shifts whose stored status disagrees with their check-ins.
func Reconcile(shifts []models.Shift, checkIns []models.CheckIn) []Mismatch {
	var mismatches []Mismatch
	for _, shift := range shifts {
		derived, ok := Status(shift.ID, checkIns)
		switch {
		case ok && derived != shift.Status:
			mismatches = append(mismatches, Mismatch{ShiftID: shift.ID, Stored: shift.Status, Derived: derived})
		case !ok && (shift.Status == models.ShiftInProgress || shift.Status == models.ShiftCompleted):
			mismatches = append(mismatches, Mismatch{ShiftID: shift.ID, Stored: shift.Status, Derived: models.ShiftScheduled})
		}
	}
	return mismatches
}

// UpcomingShifts returns the employee's next n shifts dated today or later.
func UpcomingShifts(shifts []models.Shift, employeeID, today string, n int) []models.Shift {
	var upcoming []models.Shift
	for _, shift := range shifts {
		if shift.EmployeeID == employeeID && shift.Date >= today {
			upcoming = append(upcoming, shift)
		}
	}
	store.SortShifts(upcoming)
	if n > 0 && len(upcoming) > n {
		upcoming = upcoming[:n]
	}
	return upcoming
}

type Service struct {
	Store    *store.Store
	Location *time.Location
}

func NewService(s *store.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Store: s, Location: loc}
}

// Today is the current calendar day in the service's time zone.
func (s *Service) Today() string {
	return s.Store.Now().In(s.Location).Format(models.DateLayout)
}

func (s *Service) ShiftForToday(ctx context.Context, employeeID string) (models.Shift, error) {
	shifts, err := s.Store.ListShifts(ctx, store.ShiftFilter{EmployeeID: employeeID, Date: s.Today()})
	if err != nil {
		return models.Shift{}, err
	}
	shift, ok := FindShiftForToday(shifts, employeeID, s.Today())
	if !ok {
		return models.Shift{}, apperr.NotFound("no shift scheduled for today")
	}
	return shift, nil
}

func (s *Service) Upcoming(ctx context.Context, employeeID string, n int) ([]models.Shift, error) {
	shifts, err := s.Store.ListShifts(ctx, store.ShiftFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, err
	}
	return UpcomingShifts(shifts, employeeID, s.Today(), n), nil
}

func (s *Service) ShiftsForDate(ctx context.Context, date string) ([]models.Shift, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}
	return s.Store.ListShifts(ctx, store.ShiftFilter{Date: date})
}

// MarkMissed is the manual administrator action for a shift nobody worked.
func (s *Service) MarkMissed(ctx context.Context, shiftID string) (models.Shift, error) {
	var marked models.Shift
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		shift, err := tx.Shift(shiftID)
		if err != nil {
			return err
		}
		if err := Transition(&shift, models.ShiftMissed, tx.Now()); err != nil {
			return err
		}
		marked = shift
		return tx.SaveShift(shift)
	})
	if err != nil {
		return models.Shift{}, err
	}
	log.Printf("[lifecycle] shift %s marked missed", shiftID)
	return marked, nil
}

// SweepMissed marks every scheduled shift whose window ended before now as
// missed and returns them ordered by date and start time.
func (s *Service) SweepMissed(ctx context.Context, now time.Time) ([]models.Shift, error) {
	var swept []models.Shift
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		for i := range shifts {
			if shifts[i].Status != models.ShiftScheduled {
				continue
			}
			_, end, err := shifts[i].Window(s.Location)
			if err != nil {
				log.Printf("[lifecycle] shift %s has an unreadable window: %v", shifts[i].ID, err)
				continue
			}
			if !end.Before(now) {
				continue
			}
			if err := Transition(&shifts[i], models.ShiftMissed, tx.Now()); err != nil {
				return err
			}
			swept = append(swept, shifts[i])
		}
		if len(swept) > 0 {
			tx.SetShifts(shifts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(swept, func(i, j int) bool {
		if swept[i].Date != swept[j].Date {
			return swept[i].Date < swept[j].Date
		}
		return swept[i].StartTime < swept[j].StartTime
	})
	log.Printf("[lifecycle] sweep marked %d shifts missed", len(swept))
	return swept, nil
}

// Verify reports every shift whose stored status disagrees with the log.
func (s *Service) Verify(ctx context.Context) ([]Mismatch, error) {
	var mismatches []Mismatch
	err := s.Store.View(ctx, func(tx *store.Tx) error {
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		checkIns, err := tx.CheckIns()
		if err != nil {
			return err
		}
		mismatches = Reconcile(shifts, checkIns)
		return nil
	})
	return mismatches, err
}
