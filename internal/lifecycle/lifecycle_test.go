package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

var now = time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)

func TestTransitionAllowedEdges(t *testing.T) {
	cases := []struct {
		from, to models.ShiftStatus
		ok       bool
	}{
		{models.ShiftScheduled, models.ShiftInProgress, true},
		{models.ShiftInProgress, models.ShiftCompleted, true},
		{models.ShiftScheduled, models.ShiftMissed, true},
		{models.ShiftScheduled, models.ShiftCompleted, false},
		{models.ShiftInProgress, models.ShiftMissed, false},
		{models.ShiftCompleted, models.ShiftInProgress, false},
		{models.ShiftMissed, models.ShiftInProgress, false},
		{models.ShiftInProgress, models.ShiftInProgress, false},
	}
	for _, tc := range cases {
		shift := models.Shift{Status: tc.from}
		err := Transition(&shift, tc.to, now)
		if tc.ok {
			if err != nil || shift.Status != tc.to || !shift.UpdatedAt.Equal(now) {
				t.Fatalf("%s -> %s: expected success, got %v (%+v)", tc.from, tc.to, err, shift)
			}
			continue
		}
		if !errors.Is(err, apperr.ErrConflict) || shift.Status != tc.from {
			t.Fatalf("%s -> %s: expected conflict with status unchanged, got %v (%s)", tc.from, tc.to, err, shift.Status)
		}
	}
}

func TestFindShiftForTodayTieBreak(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	shifts := []models.Shift{
		{ID: "late", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftScheduled, CreatedAt: base.Add(time.Hour)},
		{ID: "done", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftCompleted, CreatedAt: base.Add(-time.Hour)},
		{ID: "gone", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftMissed, CreatedAt: base.Add(-90 * time.Minute)},
		{ID: "other", EmployeeID: "e2", Date: "2024-01-02", Status: models.ShiftScheduled, CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "b", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftScheduled, CreatedAt: base},
		{ID: "a", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftInProgress, CreatedAt: base},
		{ID: "yesterday", EmployeeID: "e1", Date: "2024-01-01", Status: models.ShiftScheduled, CreatedAt: base.Add(-3 * time.Hour)},
	}
	shift, ok := FindShiftForToday(shifts, "e1", "2024-01-02")
	if !ok || shift.ID != "a" {
		t.Fatalf("expected shift a, got %q ok=%v", shift.ID, ok)
	}
	if _, ok := FindShiftForToday(shifts, "e3", "2024-01-02"); ok {
		t.Fatalf("expected no shift for unknown employee")
	}

	finished := []models.Shift{
		{ID: "done", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftCompleted},
		{ID: "gone", EmployeeID: "e1", Date: "2024-01-02", Status: models.ShiftMissed},
	}
	if shift, ok := FindShiftForToday(finished, "e1", "2024-01-02"); ok {
		t.Fatalf("expected completed and missed shifts to be skipped, got %q", shift.ID)
	}
}

func TestStatusAndReconcile(t *testing.T) {
	out := now
	checkIns := []models.CheckIn{
		{ID: "c1", ShiftID: "s1", CheckInTime: now.Add(-time.Hour)},
		{ID: "c2", ShiftID: "s2", CheckInTime: now.Add(-2 * time.Hour), CheckOutTime: &out},
	}
	if status, ok := Status("s1", checkIns); !ok || status != models.ShiftInProgress {
		t.Fatalf("expected in-progress, got %s", status)
	}
	if status, ok := Status("s2", checkIns); !ok || status != models.ShiftCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if _, ok := Status("s3", checkIns); ok {
		t.Fatalf("expected no derived status")
	}

	shifts := []models.Shift{
		{ID: "s1", Status: models.ShiftInProgress},
		{ID: "s2", Status: models.ShiftInProgress},
		{ID: "s3", Status: models.ShiftCompleted},
		{ID: "s4", Status: models.ShiftMissed},
	}
	mismatches := Reconcile(shifts, checkIns)
	if len(mismatches) != 2 || mismatches[0].ShiftID != "s2" || mismatches[1].ShiftID != "s3" {
		t.Fatalf("unexpected mismatches %+v", mismatches)
	}
}

func TestUpcomingShifts(t *testing.T) {
	shifts := []models.Shift{
		{ID: "past", EmployeeID: "e1", Date: "2024-01-01", StartTime: "09:00"},
		{ID: "d3", EmployeeID: "e1", Date: "2024-01-03", StartTime: "09:00"},
		{ID: "d2pm", EmployeeID: "e1", Date: "2024-01-02", StartTime: "14:00"},
		{ID: "d2am", EmployeeID: "e1", Date: "2024-01-02", StartTime: "08:00"},
		{ID: "theirs", EmployeeID: "e2", Date: "2024-01-02", StartTime: "08:00"},
	}
	upcoming := UpcomingShifts(shifts, "e1", "2024-01-02", 2)
	if len(upcoming) != 2 || upcoming[0].ID != "d2am" || upcoming[1].ID != "d2pm" {
		t.Fatalf("unexpected upcoming %+v", upcoming)
	}
}

func newService(t *testing.T) (*Service, *store.Store, models.Employee, models.Location) {
	t.Helper()
	st := store.New(kv.NewMemoryStore(), store.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	employee, err := st.CreateEmployee(ctx, store.EmployeeInput{Name: "Ann", Email: "ann@x.com", Phone: "5550101", Position: "Guard"})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	location, err := st.CreateLocation(ctx, store.LocationInput{Name: "Mall", Address: "1 Main"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return NewService(st, time.UTC), st, employee, location
}

func TestShiftForToday(t *testing.T) {
	ctx := context.Background()
	svc, st, employee, location := newService(t)
	if _, err := svc.ShiftForToday(ctx, employee.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	created, err := st.CreateShift(ctx, store.ShiftInput{EmployeeID: employee.ID, LocationID: location.ID, Date: "2024-01-02", StartTime: "09:00", EndTime: "17:00"})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}
	shift, err := svc.ShiftForToday(ctx, employee.ID)
	if err != nil || shift.ID != created.ID {
		t.Fatalf("expected today's shift, got %+v err=%v", shift, err)
	}
}

func TestMarkMissed(t *testing.T) {
	ctx := context.Background()
	svc, st, employee, location := newService(t)
	shift, _ := st.CreateShift(ctx, store.ShiftInput{EmployeeID: employee.ID, LocationID: location.ID, Date: "2024-01-01", StartTime: "09:00", EndTime: "17:00"})

	marked, err := svc.MarkMissed(ctx, shift.ID)
	if err != nil || marked.Status != models.ShiftMissed {
		t.Fatalf("expected missed, got %+v err=%v", marked, err)
	}
	stored, _ := st.Shift(ctx, shift.ID)
	if stored.Status != models.ShiftMissed {
		t.Fatalf("expected persisted missed status, got %s", stored.Status)
	}
	if _, err := svc.MarkMissed(ctx, shift.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on second mark, got %v", err)
	}
	if _, err := svc.MarkMissed(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweepMissedOnlyTouchesEndedScheduledShifts(t *testing.T) {
	ctx := context.Background()
	svc, st, employee, location := newService(t)
	create := func(date, start, end string) models.Shift {
		shift, err := st.CreateShift(ctx, store.ShiftInput{EmployeeID: employee.ID, LocationID: location.ID, Date: date, StartTime: start, EndTime: end})
		if err != nil {
			t.Fatalf("create shift: %v", err)
		}
		return shift
	}
	ended := create("2024-01-01", "09:00", "17:00")
	overnight := create("2024-01-01", "22:00", "06:00")
	running := create("2024-01-02", "09:00", "17:00")
	endedMorning := create("2024-01-02", "06:00", "11:00")
	started := create("2024-01-01", "08:00", "10:00")
	err := st.Update(ctx, func(tx *store.Tx) error {
		shift, err := tx.Shift(started.ID)
		if err != nil {
			return err
		}
		if err := Transition(&shift, models.ShiftInProgress, now); err != nil {
			return err
		}
		return tx.SaveShift(shift)
	})
	if err != nil {
		t.Fatalf("start shift: %v", err)
	}

	swept, err := svc.SweepMissed(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(swept) != 3 || swept[0].ID != ended.ID || swept[1].ID != overnight.ID || swept[2].ID != endedMorning.ID {
		t.Fatalf("unexpected swept shifts %+v", swept)
	}
	for id, want := range map[string]models.ShiftStatus{
		ended.ID:        models.ShiftMissed,
		overnight.ID:    models.ShiftMissed,
		endedMorning.ID: models.ShiftMissed,
		running.ID:      models.ShiftScheduled,
		started.ID:      models.ShiftInProgress,
	} {
		shift, _ := st.Shift(ctx, id)
		if shift.Status != want {
			t.Fatalf("shift %s: expected %s, got %s", id, want, shift.Status)
		}
	}

	again, err := svc.SweepMissed(ctx, now)
	if err != nil || len(again) != 0 {
		t.Fatalf("second sweep should find nothing, got %d err=%v", len(again), err)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	svc, st, employee, location := newService(t)
	shift, _ := st.CreateShift(ctx, store.ShiftInput{EmployeeID: employee.ID, LocationID: location.ID, Date: "2024-01-02", StartTime: "09:00", EndTime: "17:00"})
	err := st.Update(ctx, func(tx *store.Tx) error {
		return tx.AddCheckIn(models.CheckIn{ID: "c1", ShiftID: shift.ID, EmployeeID: employee.ID, CheckInTime: now})
	})
	if err != nil {
		t.Fatalf("add check-in: %v", err)
	}
	mismatches, err := svc.Verify(ctx)
	if err != nil || len(mismatches) != 1 || mismatches[0].Derived != models.ShiftInProgress {
		t.Fatalf("expected one mismatch, got %+v err=%v", mismatches, err)
	}
}
