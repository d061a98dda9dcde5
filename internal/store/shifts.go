package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

type ShiftInput struct {
	EmployeeID string `json:"employeeId"`
	LocationID string `json:"locationId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Notes      string `json:"notes"`
}

type ShiftFilter struct {
	EmployeeID string
	Date       string
	Status     models.ShiftStatus
	EventID    string
}

func (f ShiftFilter) match(shift models.Shift) bool {
	if f.EmployeeID != "" && shift.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Date != "" && shift.Date != f.Date {
		return false
	}
	if f.Status != "" && shift.Status != f.Status {
		return false
	}
	if f.EventID != "" && shift.EventID != f.EventID {
		return false
	}
	return true
}

func validateWindow(date, start, end string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return apperr.Validation("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(models.ClockLayout, start); err != nil {
		return apperr.Validation("start time must be HH:MM")
	}
	if _, err := time.Parse(models.ClockLayout, end); err != nil {
		return apperr.Validation("end time must be HH:MM")
	}
	return nil
}

// newShift builds a scheduled shift for employee at location. Callers have
// validated the window.
func (tx *Tx) newShift(employee models.Employee, location models.Location, date, start, end, notes, eventID string) models.Shift {
	now := tx.Now()
	return models.Shift{
		ID:           tx.store.newID(),
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		LocationID:   location.ID,
		LocationName: location.Name,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		Status:       models.ShiftScheduled,
		Notes:        notes,
		EventID:      eventID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Store) CreateShift(ctx context.Context, in ShiftInput) (models.Shift, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.EmployeeID == "" || in.LocationID == "" || in.Date == "" || in.StartTime == "" || in.EndTime == "" {
		return models.Shift{}, apperr.Validation("please fill in all required fields")
	}
	if err := validateWindow(in.Date, in.StartTime, in.EndTime); err != nil {
		return models.Shift{}, err
	}

	var created models.Shift
	err := s.Update(ctx, func(tx *Tx) error {
		employee, location, err := tx.assignment(in.EmployeeID, in.LocationID)
		if err != nil {
			return err
		}
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		created = tx.newShift(employee, location, in.Date, in.StartTime, in.EndTime, in.Notes, "")
		tx.SetShifts(append(shifts, created))
		return nil
	})
	if err != nil {
		return models.Shift{}, err
	}
	return created, nil
}

// assignment resolves the employee and location a shift is created for. A
// missing reference is a validation failure of the request, not a lookup miss.
func (tx *Tx) assignment(employeeID, locationID string) (models.Employee, models.Location, error) {
	employee, err := tx.Employee(employeeID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return models.Employee{}, models.Location{}, apperr.Validation("invalid employee or location selected")
		}
		return models.Employee{}, models.Location{}, err
	}
	location, err := tx.Location(locationID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return models.Employee{}, models.Location{}, apperr.Validation("invalid employee or location selected")
		}
		return models.Employee{}, models.Location{}, err
	}
	return employee, location, nil
}

// DeleteShift removes the shift and drops it from its parent event. Check-ins
// recorded against it are kept. An unknown id is a no-op.
func (s *Store) DeleteShift(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error {
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		kept := make([]models.Shift, 0, len(shifts))
		for _, shift := range shifts {
			if shift.ID != id {
				kept = append(kept, shift)
			}
		}
		if len(kept) == len(shifts) {
			return nil
		}
		if err := tx.unlinkEventShifts(map[string]bool{id: true}); err != nil {
			return err
		}
		tx.SetShifts(kept)
		return nil
	})
}

func (s *Store) Shift(ctx context.Context, id string) (models.Shift, error) {
	var shift models.Shift
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		shift, err = tx.Shift(id)
		if err != nil {
			return err
		}
		refreshed, err := tx.refreshShiftNames([]models.Shift{shift})
		if err == nil && len(refreshed) == 1 {
			shift = refreshed[0]
		}
		return err
	})
	return shift, err
}

// ListShifts returns matching shifts ordered by date, start time and creation.
func (s *Store) ListShifts(ctx context.Context, filter ShiftFilter) ([]models.Shift, error) {
	var result []models.Shift
	err := s.View(ctx, func(tx *Tx) error {
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		for _, shift := range shifts {
			if filter.match(shift) {
				result = append(result, shift)
			}
		}
		result, err = tx.refreshShiftNames(result)
		return err
	})
	if err != nil {
		return nil, err
	}
	SortShifts(result)
	return result, nil
}

func SortShifts(shifts []models.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if shifts[i].Date != shifts[j].Date {
			return shifts[i].Date < shifts[j].Date
		}
		if shifts[i].StartTime != shifts[j].StartTime {
			return shifts[i].StartTime < shifts[j].StartTime
		}
		return shifts[i].CreatedAt.Before(shifts[j].CreatedAt)
	})
}

// refreshShiftNames copies current employee and location names onto shifts.
// References to deleted entities keep their last known names.
func (tx *Tx) refreshShiftNames(shifts []models.Shift) ([]models.Shift, error) {
	employees, locations, err := tx.nameIndex()
	if err != nil {
		return nil, err
	}
	for i := range shifts {
		if name, ok := employees[shifts[i].EmployeeID]; ok {
			shifts[i].EmployeeName = name
		}
		if name, ok := locations[shifts[i].LocationID]; ok {
			shifts[i].LocationName = name
		}
	}
	return shifts, nil
}

func (tx *Tx) nameIndex() (map[string]string, map[string]string, error) {
	employees, err := tx.Employees()
	if err != nil {
		return nil, nil, err
	}
	locations, err := tx.Locations()
	if err != nil {
		return nil, nil, err
	}
	employeeNames := make(map[string]string, len(employees))
	for _, employee := range employees {
		employeeNames[employee.ID] = employee.Name
	}
	locationNames := make(map[string]string, len(locations))
	for _, location := range locations {
		locationNames[location.ID] = location.Name
	}
	return employeeNames, locationNames, nil
}
