package store

import (
	"context"
	"sort"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

type CheckInFilter struct {
	EmployeeID string
	ShiftID    string
	OpenOnly   bool
}

func (f CheckInFilter) match(checkIn models.CheckIn) bool {
	if f.EmployeeID != "" && checkIn.EmployeeID != f.EmployeeID {
		return false
	}
	if f.ShiftID != "" && checkIn.ShiftID != f.ShiftID {
		return false
	}
	if f.OpenOnly && !checkIn.Open() {
		return false
	}
	return true
}

// ListCheckIns returns matching check-ins, newest check-in first.
func (s *Store) ListCheckIns(ctx context.Context, filter CheckInFilter) ([]models.CheckIn, error) {
	var result []models.CheckIn
	err := s.View(ctx, func(tx *Tx) error {
		checkIns, err := tx.CheckIns()
		if err != nil {
			return err
		}
		employees, locations, err := tx.nameIndex()
		if err != nil {
			return err
		}
		for _, checkIn := range checkIns {
			if !filter.match(checkIn) {
				continue
			}
			if name, ok := employees[checkIn.EmployeeID]; ok {
				checkIn.EmployeeName = name
			}
			if name, ok := locations[checkIn.LocationID]; ok {
				checkIn.LocationName = name
			}
			result = append(result, checkIn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CheckInTime.After(result[j].CheckInTime)
	})
	return result, nil
}
