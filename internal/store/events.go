package store

import (
	"context"
	"sort"
	"strings"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

type EventInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	StartTime   string           `json:"startTime"`
	EndTime     string           `json:"endTime"`
	LocationID  string           `json:"locationId"`
	Type        models.EventType `json:"type"`
	Color       string           `json:"color"`
	EmployeeIDs []string         `json:"employeeIds"`
}

// CreateCalendarEvent stores the event and one scheduled shift per assigned
// employee, each carrying the event's date, window and location.
func (s *Store) CreateCalendarEvent(ctx context.Context, in EventInput) (models.CalendarEvent, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Color = strings.TrimSpace(in.Color)
	if in.Type == "" {
		in.Type = models.EventGeneral
	}
	if in.Title == "" || in.Date == "" || in.StartTime == "" || in.EndTime == "" || in.LocationID == "" {
		return models.CalendarEvent{}, apperr.Validation("please fill in all required fields")
	}
	if !in.Type.Valid() {
		return models.CalendarEvent{}, apperr.Validation("unknown event type %q", in.Type)
	}
	if err := validateWindow(in.Date, in.StartTime, in.EndTime); err != nil {
		return models.CalendarEvent{}, err
	}
	if in.Color == "" {
		in.Color = in.Type.DefaultColor()
	}

	var created models.CalendarEvent
	err := s.Update(ctx, func(tx *Tx) error {
		location, err := tx.Location(in.LocationID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return apperr.Validation("invalid location selected")
			}
			return err
		}
		events, err := tx.Events()
		if err != nil {
			return err
		}
		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}

		created = models.CalendarEvent{
			ID:           s.newID(),
			Title:        in.Title,
			Description:  in.Description,
			Date:         in.Date,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			LocationID:   location.ID,
			LocationName: location.Name,
			Type:         in.Type,
			Color:        in.Color,
			ShiftIDs:     []string{},
		}
		seen := map[string]bool{}
		for _, employeeID := range in.EmployeeIDs {
			if seen[employeeID] {
				continue
			}
			seen[employeeID] = true
			employee, err := tx.Employee(employeeID)
			if err != nil {
				if apperr.IsNotFound(err) {
					return apperr.Validation("invalid employee selected")
				}
				return err
			}
			shift := tx.newShift(employee, location, in.Date, in.StartTime, in.EndTime, in.Title, created.ID)
			shifts = append(shifts, shift)
			created.ShiftIDs = append(created.ShiftIDs, shift.ID)
		}

		if len(created.ShiftIDs) > 0 {
			tx.SetShifts(shifts)
		}
		tx.SetEvents(append(events, created))
		return nil
	})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	return created, nil
}

// DeleteCalendarEvent removes the event and every shift created under it.
func (s *Store) DeleteCalendarEvent(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		keptEvents := make([]models.CalendarEvent, 0, len(events))
		for _, event := range events {
			if event.ID != id {
				keptEvents = append(keptEvents, event)
			}
		}

		shifts, err := tx.Shifts()
		if err != nil {
			return err
		}
		keptShifts := make([]models.Shift, 0, len(shifts))
		for _, shift := range shifts {
			if shift.EventID != id {
				keptShifts = append(keptShifts, shift)
			}
		}

		if len(keptShifts) != len(shifts) {
			tx.SetShifts(keptShifts)
		}
		if len(keptEvents) != len(events) {
			tx.SetEvents(keptEvents)
		}
		return nil
	})
}

// unlinkEventShifts drops removed shift ids from their parent events.
func (tx *Tx) unlinkEventShifts(removed map[string]bool) error {
	events, err := tx.Events()
	if err != nil {
		return err
	}
	changed := false
	for i := range events {
		kept := make([]string, 0, len(events[i].ShiftIDs))
		for _, shiftID := range events[i].ShiftIDs {
			if removed[shiftID] {
				changed = true
				continue
			}
			kept = append(kept, shiftID)
		}
		events[i].ShiftIDs = kept
	}
	if changed {
		tx.SetEvents(events)
	}
	return nil
}

func (s *Store) CalendarEvent(ctx context.Context, id string) (models.CalendarEvent, error) {
	var found models.CalendarEvent
	err := s.View(ctx, func(tx *Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.ID == id {
				found = event
				return nil
			}
		}
		return apperr.NotFound("event not found")
	})
	return found, err
}

// ListCalendarEvents returns events ordered by date and start time, with
// location names refreshed.
func (s *Store) ListCalendarEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	var result []models.CalendarEvent
	err := s.View(ctx, func(tx *Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		_, locations, err := tx.nameIndex()
		if err != nil {
			return err
		}
		for _, event := range events {
			if name, ok := locations[event.LocationID]; ok {
				event.LocationName = name
			}
			result = append(result, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}
