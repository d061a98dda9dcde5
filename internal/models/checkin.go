package models

import "time"

type ActualLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// CheckIn is one attendance session. A nil CheckOutTime means the session is
// still open.
type CheckIn struct {
	ID             string          `json:"id"`
	ShiftID        string          `json:"shiftId"`
	EmployeeID     string          `json:"employeeId"`
	EmployeeName   string          `json:"employeeName"`
	LocationID     string          `json:"locationId"`
	LocationName   string          `json:"locationName"`
	CheckInTime    time.Time       `json:"checkInTime"`
	CheckOutTime   *time.Time      `json:"checkOutTime,omitempty"`
	ActualLocation *ActualLocation `json:"actualLocation,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

func (c CheckIn) Open() bool {
	return c.CheckOutTime == nil
}
