package store

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

type MigrationReport struct {
	PINsAssigned int `json:"pinsAssigned"`
	ShiftsLinked int `json:"shiftsLinked"`
}

// Migrate backfills data written by older versions: employees without a PIN
// get one, and shifts that only name their employee are linked by id when
// exactly one employee carries that name. Shifts whose name is ambiguous or
// unknown are left untouched.
func (s *Store) Migrate(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport
	err := s.Update(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		report.PINsAssigned = tx.pinsAssigned

		byName := map[string][]string{}
		for _, employee := range employees {
			key := strings.ToLower(strings.TrimSpace(employee.Name))
			byName[key] = append(byName[key], employee.ID)
		}

		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		for i := range shifts {
			if shifts[i].EmployeeID != "" || shifts[i].EmployeeName == "" {
				continue
			}
			ids := byName[strings.ToLower(strings.TrimSpace(shifts[i].EmployeeName))]
			if len(ids) != 1 {
				log.Printf("[store] shift %s names %q which matches %d employees, left unlinked", shifts[i].ID, shifts[i].EmployeeName, len(ids))
				continue
			}
			shifts[i].EmployeeID = ids[0]
			report.ShiftsLinked++
		}
		if report.ShiftsLinked > 0 {
			tx.SetShifts(shifts)
		}
		return nil
	})
	return report, err
}

// Seed installs the sample roster and sites when those collections have never
// been written. It reports whether anything was installed.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.Update(ctx, func(tx *Tx) error {
		if _, err := tx.Employees(); err != nil {
			return err
		}
		if !tx.employees.found {
			employees := sampleEmployees()
			if err := tx.backfillPINs(employees); err != nil {
				return err
			}
			tx.SetEmployees(employees)
			seeded = true
		}

		if _, err := tx.Locations(); err != nil {
			return err
		}
		if !tx.locations.found {
			tx.SetLocations(sampleLocations())
			seeded = true
		}
		return nil
	})
	return seeded, err
}

func sampleEmployees() []models.Employee {
	return []models.Employee{
		{
			ID:       "1",
			Name:     "John Smith",
			Email:    "john@erosecurity.com",
			Phone:    "+1-555-0101",
			Position: "Security Officer",
			HireDate: time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
			IsActive: true,
		},
		{
			ID:       "2",
			Name:     "Sarah Johnson",
			Email:    "sarah@erosecurity.com",
			Phone:    "+1-555-0102",
			Position: "Senior Security Officer",
			HireDate: time.Date(2022, time.August, 20, 0, 0, 0, 0, time.UTC),
			IsActive: true,
		},
		{
			ID:       "3",
			Name:     "Mike Davis",
			Email:    "mike@erosecurity.com",
			Phone:    "+1-555-0103",
			Position: "Security Supervisor",
			HireDate: time.Date(2021, time.March, 10, 0, 0, 0, 0, time.UTC),
			IsActive: true,
		},
	}
}

func sampleLocations() []models.Location {
	return []models.Location{
		{ID: "1", Name: "Downtown Office Complex", Address: "123 Business Ave, Downtown", Description: "Main office building security"},
		{ID: "2", Name: "Shopping Mall West", Address: "456 Mall Dr, West Side", Description: "Shopping center patrol"},
		{ID: "3", Name: "Corporate Event Center", Address: "789 Event Blvd, City Center", Description: "Event security services"},
		{ID: "4", Name: "Residential Complex", Address: "321 Residential St, Suburbs", Description: "Residential area security"},
	}
}
