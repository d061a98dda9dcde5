package models

type EventType string

const (
	EventGeneral     EventType = "event"
	EventMeeting     EventType = "meeting"
	EventTraining    EventType = "training"
	EventMaintenance EventType = "maintenance"
)

var eventColors = map[EventType]string{
	EventGeneral:     "#2563EB",
	EventMeeting:     "#7C3AED",
	EventTraining:    "#059669",
	EventMaintenance: "#D97706",
}

func (t EventType) Valid() bool {
	_, ok := eventColors[t]
	return ok
}

// DefaultColor is the calendar color used when an event is created without one.
func (t EventType) DefaultColor() string {
	return eventColors[t]
}

type CalendarEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	LocationID   string    `json:"locationId"`
	LocationName string    `json:"locationName"`
	Type         EventType `json:"type"`
	Color        string    `json:"color"`
	ShiftIDs     []string  `json:"shiftIds"`
}
