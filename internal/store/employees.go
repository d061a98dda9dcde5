package store

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,}$`)
)

// maxPINAttempts bounds the retry loop when the generator keeps colliding.
const maxPINAttempts = 20 * utils.PINSpace

type EmployeeInput struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Position string    `json:"position"`
	PIN      string    `json:"pin"`
	HireDate time.Time `json:"hireDate"`
}

func (in EmployeeInput) normalize() (EmployeeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Position = strings.TrimSpace(in.Position)
	in.PIN = strings.TrimSpace(in.PIN)

	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Position == "" {
		return in, apperr.Validation("please fill in all required fields")
	}
	if !emailPattern.MatchString(in.Email) {
		return in, apperr.Validation("invalid email address")
	}
	if !phonePattern.MatchString(in.Phone) {
		return in, apperr.Validation("invalid phone number")
	}
	if in.PIN != "" && !utils.ValidPIN(in.PIN) {
		return in, apperr.Validation("PIN must be exactly 5 digits")
	}
	return in, nil
}

func emailTaken(employees []models.Employee, email string, exceptID string) bool {
	for _, employee := range employees {
		if employee.ID != exceptID && strings.EqualFold(strings.TrimSpace(employee.Email), email) {
			return true
		}
	}
	return false
}

func pinTaken(employees []models.Employee, pin string, exceptID string) bool {
	for _, employee := range employees {
		if employee.ID != exceptID && employee.PIN == pin {
			return true
		}
	}
	return false
}

// uniquePIN draws PINs until one is unused by employees.
func (tx *Tx) uniquePIN(employees []models.Employee) (string, error) {
	used := map[string]bool{}
	for _, employee := range employees {
		if employee.PIN != "" {
			used[employee.PIN] = true
		}
	}
	if len(used) >= utils.PINSpace {
		return "", apperr.Conflict("no unused PIN is left")
	}
	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		pin, err := tx.store.newPIN()
		if err != nil {
			return "", err
		}
		if !used[pin] {
			return pin, nil
		}
	}
	return "", apperr.Conflict("could not generate an unused PIN")
}

// backfillPINs gives every employee stored before PINs existed a unique one.
func (tx *Tx) backfillPINs(employees []models.Employee) error {
	changed := 0
	for i := range employees {
		if employees[i].PIN != "" {
			continue
		}
		pin, err := tx.uniquePIN(employees)
		if err != nil {
			return err
		}
		employees[i].PIN = pin
		changed++
	}
	if changed > 0 {
		log.Printf("[store] assigned PINs to %d employees without one", changed)
		tx.pinsAssigned += changed
		tx.SetEmployees(employees)
	}
	return nil
}

func (s *Store) CreateEmployee(ctx context.Context, in EmployeeInput) (models.Employee, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Employee{}, err
	}

	var created models.Employee
	err = s.Update(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		if emailTaken(employees, in.Email, "") {
			return apperr.Conflict("an employee with this email already exists")
		}
		pin := in.PIN
		if pin != "" {
			if pinTaken(employees, pin, "") {
				return apperr.Conflict("this PIN is already in use")
			}
		} else {
			pin, err = tx.uniquePIN(employees)
			if err != nil {
				return err
			}
		}

		hireDate := in.HireDate
		if hireDate.IsZero() {
			hireDate = tx.Now()
		}
		created = models.Employee{
			ID:       s.newID(),
			Name:     in.Name,
			Email:    in.Email,
			Phone:    in.Phone,
			Position: in.Position,
			PIN:      pin,
			HireDate: hireDate,
			IsActive: true,
		}
		tx.SetEmployees(append(employees, created))
		return nil
	})
	if err != nil {
		return models.Employee{}, err
	}
	return created, nil
}

// UpdateEmployee replaces the editable fields. An empty PIN keeps the current
// one; a zero hire date keeps the current date.
func (s *Store) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (models.Employee, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Employee{}, err
	}

	var updated models.Employee
	err = s.Update(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		index := -1
		for i := range employees {
			if employees[i].ID == id {
				index = i
				break
			}
		}
		if index < 0 {
			return apperr.NotFound("employee not found")
		}
		if emailTaken(employees, in.Email, id) {
			return apperr.Conflict("an employee with this email already exists")
		}
		if in.PIN != "" && pinTaken(employees, in.PIN, id) {
			return apperr.Conflict("this PIN is already in use")
		}

		employee := employees[index]
		employee.Name = in.Name
		employee.Email = in.Email
		employee.Phone = in.Phone
		employee.Position = in.Position
		if in.PIN != "" {
			employee.PIN = in.PIN
		}
		if !in.HireDate.IsZero() {
			employee.HireDate = in.HireDate
		}
		employees[index] = employee
		tx.SetEmployees(employees)
		updated = employee
		return nil
	})
	if err != nil {
		return models.Employee{}, err
	}
	return updated, nil
}

// DeleteEmployee removes the employee with their shifts and check-ins. An
// unknown id is a no-op.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		remaining := make([]models.Employee, 0, len(employees))
		for _, employee := range employees {
			if employee.ID != id {
				remaining = append(remaining, employee)
			}
		}
		if len(remaining) == len(employees) {
			return nil
		}

		checkIns, err := tx.CheckIns()
		if err != nil {
			return err
		}
		keptCheckIns := make([]models.CheckIn, 0, len(checkIns))
		for _, checkIn := range checkIns {
			if checkIn.EmployeeID != id {
				keptCheckIns = append(keptCheckIns, checkIn)
			}
		}

		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		removed := map[string]bool{}
		keptShifts := make([]models.Shift, 0, len(shifts))
		for _, shift := range shifts {
			if shift.EmployeeID == id {
				removed[shift.ID] = true
				continue
			}
			keptShifts = append(keptShifts, shift)
		}
		if len(removed) > 0 {
			if err := tx.unlinkEventShifts(removed); err != nil {
				return err
			}
		}

		tx.SetCheckIns(keptCheckIns)
		tx.SetShifts(keptShifts)
		tx.SetEmployees(remaining)
		return nil
	})
}

func (s *Store) ToggleEmployeeActive(ctx context.Context, id string) (models.Employee, error) {
	var toggled models.Employee
	err := s.Update(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		for i := range employees {
			if employees[i].ID == id {
				employees[i].IsActive = !employees[i].IsActive
				toggled = employees[i]
				tx.SetEmployees(employees)
				return nil
			}
		}
		return apperr.NotFound("employee not found")
	})
	if err != nil {
		return models.Employee{}, err
	}
	return toggled, nil
}

func (s *Store) Employee(ctx context.Context, id string) (models.Employee, error) {
	var employee models.Employee
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		employee, err = tx.Employee(id)
		return err
	})
	return employee, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := s.View(ctx, func(tx *Tx) error {
		items, err := tx.Employees()
		employees = append([]models.Employee(nil), items...)
		return err
	})
	return employees, err
}

// EmployeeByPIN finds the employee holding pin, active or not.
func (s *Store) EmployeeByPIN(ctx context.Context, pin string) (models.Employee, error) {
	var found models.Employee
	err := s.View(ctx, func(tx *Tx) error {
		employees, err := tx.Employees()
		if err != nil {
			return err
		}
		for _, employee := range employees {
			if employee.PIN != "" && employee.PIN == pin {
				found = employee
				return nil
			}
		}
		return apperr.NotFound("no employee with this PIN")
	})
	return found, err
}
