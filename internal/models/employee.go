package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Position string    `json:"position"`
	PIN      string    `json:"pin,omitempty"`
	HireDate time.Time `json:"hireDate"`
	IsActive bool      `json:"isActive"`
}

// UnmarshalJSON treats a record written before the active flag existed as
// active.
func (e *Employee) UnmarshalJSON(data []byte) error {
	type plain Employee
	aux := struct {
		*plain
		IsActive *bool `json:"isActive"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

// NewID returns an opaque identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}
