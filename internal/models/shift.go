package models

import "time"

type ShiftStatus string

const (
	ShiftScheduled  ShiftStatus = "scheduled"
	ShiftInProgress ShiftStatus = "in-progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftMissed     ShiftStatus = "missed"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftScheduled, ShiftInProgress, ShiftCompleted, ShiftMissed:
		return true
	}
	return false
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Shift is one employee assigned to a location for a wall-clock window on a
// calendar day. EmployeeName and LocationName are display copies refreshed
// from the referenced entities on read.
type Shift struct {
	ID           string      `json:"id"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName"`
	LocationID   string      `json:"locationId"`
	LocationName string      `json:"locationName"`
	Date         string      `json:"date"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime"`
	Status       ShiftStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	EventID      string      `json:"eventId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Window resolves the shift's wall-clock start and end in loc. An end at or
// before the start is read as running past midnight.
func (s Shift) Window(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}
