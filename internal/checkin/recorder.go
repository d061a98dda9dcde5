// Package checkin records attendance sessions: opening a check-in against
// today's shift with the device position, and closing it again.
package checkin

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/geo"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/lifecycle"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

type Recorder struct {
	Store     *store.Store
	Lifecycle *lifecycle.Service
	Geocoder  geo.Geocoder
}

func NewRecorder(s *store.Store, lc *lifecycle.Service, geocoder geo.Geocoder) *Recorder {
	if geocoder == nil {
		geocoder = geo.NopGeocoder{}
	}
	return &Recorder{Store: s, Lifecycle: lc, Geocoder: geocoder}
}

// CheckIn opens a session for employeeID on today's shift and moves the shift
// to in-progress. The employee must not have an open session anywhere, and a
// position fix is required. The address lookup may fail without failing the
// check-in.
func (r *Recorder) CheckIn(ctx context.Context, employeeID string, provider geo.Provider, notes string) (models.CheckIn, error) {
	today := r.Lifecycle.Today()
	if err := r.Store.View(ctx, func(tx *store.Tx) error {
		_, err := r.eligibleShift(tx, employeeID, today)
		return err
	}); err != nil {
		return models.CheckIn{}, err
	}

	fix, err := provider.CurrentFix(ctx)
	if err != nil {
		if errors.Is(err, geo.ErrPermissionDenied) {
			return models.CheckIn{}, apperr.LocationUnavailable("location permission is required to check in")
		}
		return models.CheckIn{}, apperr.LocationUnavailable("unable to get your current location: %v", err)
	}
	actual := &models.ActualLocation{Latitude: fix.Latitude, Longitude: fix.Longitude, Accuracy: fix.Accuracy}
	if address, err := r.Geocoder.ReverseGeocode(ctx, fix.Latitude, fix.Longitude); err != nil {
		log.Printf("[checkin] reverse geocode failed for employee %s: %v", employeeID, err)
	} else {
		actual.Address = address
	}

	var created models.CheckIn
	err = r.Store.Update(ctx, func(tx *store.Tx) error {
		shift, err := r.eligibleShift(tx, employeeID, today)
		if err != nil {
			return err
		}
		employee, err := tx.Employee(employeeID)
		if err != nil {
			return err
		}
		locationName := shift.LocationName
		if location, err := tx.Location(shift.LocationID); err == nil {
			locationName = location.Name
		}

		now := tx.Now()
		if err := lifecycle.Transition(&shift, models.ShiftInProgress, now); err != nil {
			return err
		}
		created = models.CheckIn{
			ID:             r.Store.NewID(),
			ShiftID:        shift.ID,
			EmployeeID:     employee.ID,
			EmployeeName:   employee.Name,
			LocationID:     shift.LocationID,
			LocationName:   locationName,
			CheckInTime:    now,
			ActualLocation: actual,
			Notes:          strings.TrimSpace(notes),
		}
		if err := tx.AddCheckIn(created); err != nil {
			return err
		}
		return tx.SaveShift(shift)
	})
	if err != nil {
		return models.CheckIn{}, err
	}
	log.Printf("[checkin] employee %s checked in to shift %s", employeeID, created.ShiftID)
	return created, nil
}

// eligibleShift checks that the employee is active and has no open session,
// and resolves the shift they are checking into. Activity is read from the
// store on every call since a session token outlives a deactivation.
func (r *Recorder) eligibleShift(tx *store.Tx, employeeID, today string) (models.Shift, error) {
	employee, err := tx.Employee(employeeID)
	if err != nil {
		return models.Shift{}, err
	}
	if !employee.IsActive {
		return models.Shift{}, apperr.Validation("this employee account is inactive")
	}
	_, open, err := tx.OpenCheckIn(employeeID)
	if err != nil {
		return models.Shift{}, err
	}
	if open {
		return models.Shift{}, apperr.Conflict("you are already checked in")
	}
	shifts, err := tx.Shifts()
	if err != nil {
		return models.Shift{}, err
	}
	shift, ok := lifecycle.FindShiftForToday(shifts, employeeID, today)
	if !ok {
		return models.Shift{}, apperr.NotFound("no shift scheduled for today")
	}
	return shift, nil
}

// CheckOut closes the session and completes its shift. A shift that was
// deleted or is not in progress is logged and left alone; the session still
// closes.
func (r *Recorder) CheckOut(ctx context.Context, checkInID string) (models.CheckIn, error) {
	var closed models.CheckIn
	err := r.Store.Update(ctx, func(tx *store.Tx) error {
		checkIn, err := tx.CheckIn(checkInID)
		if err != nil {
			return err
		}
		if !checkIn.Open() {
			return apperr.Conflict("this check-in is already closed")
		}
		now := tx.Now()
		checkIn.CheckOutTime = &now
		if err := tx.SaveCheckIn(checkIn); err != nil {
			return err
		}
		closed = checkIn

		shift, err := tx.Shift(checkIn.ShiftID)
		if apperr.IsNotFound(err) {
			log.Printf("[checkin] check-in %s closed but shift %s no longer exists", checkInID, checkIn.ShiftID)
			return nil
		}
		if err != nil {
			return err
		}
		if err := lifecycle.Transition(&shift, models.ShiftCompleted, now); err != nil {
			log.Printf("[checkin] check-in %s closed, shift %s left as %s: %v", checkInID, shift.ID, shift.Status, err)
			return nil
		}
		return tx.SaveShift(shift)
	})
	if err != nil {
		return models.CheckIn{}, err
	}
	log.Printf("[checkin] employee %s checked out of shift %s", closed.EmployeeID, closed.ShiftID)
	return closed, nil
}

// CheckOutEmployee closes whatever session the employee has open.
func (r *Recorder) CheckOutEmployee(ctx context.Context, employeeID string) (models.CheckIn, error) {
	active, open, err := r.ActiveCheckIn(ctx, employeeID)
	if err != nil {
		return models.CheckIn{}, err
	}
	if !open {
		return models.CheckIn{}, apperr.NotFound("you are not checked in")
	}
	return r.CheckOut(ctx, active.ID)
}

func (r *Recorder) ActiveCheckIn(ctx context.Context, employeeID string) (models.CheckIn, bool, error) {
	checkIns, err := r.Store.ListCheckIns(ctx, store.CheckInFilter{EmployeeID: employeeID, OpenOnly: true})
	if err != nil || len(checkIns) == 0 {
		return models.CheckIn{}, false, err
	}
	return checkIns[0], true, nil
}

// History returns the employee's sessions, newest first.
func (r *Recorder) History(ctx context.Context, employeeID string) ([]models.CheckIn, error) {
	return r.Store.ListCheckIns(ctx, store.CheckInFilter{EmployeeID: employeeID})
}
