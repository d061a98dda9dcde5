package session

import (
	"context"
	"errors"
	"testing"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

func newManager(t *testing.T) (*Manager, *kv.MemoryStore, models.Employee) {
	t.Helper()
	memory := kv.NewMemoryStore()
	st := store.New(memory)
	employee, err := st.CreateEmployee(context.Background(), store.EmployeeInput{Name: "Ann", Email: "ann@x.com", Phone: "5550101", Position: "Guard", PIN: "24680"})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	hash, err := utils.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return NewManager(memory, st, hash, "admin@erosecurity.com"), memory, employee
}

func TestEmployeeLoginPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	m, memory, employee := newManager(t)

	user, err := m.LoginEmployee(ctx, " 24680 ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != employee.ID || user.Role != models.RoleEmployee || user.PIN != "24680" {
		t.Fatalf("unexpected session %+v", user)
	}

	fresh := NewManager(memory, nil, "", "")
	loaded, ok := fresh.Load(ctx)
	if !ok || loaded.ID != employee.ID {
		t.Fatalf("expected persisted session, got %+v ok=%v", loaded, ok)
	}
	if current, ok := fresh.Current(); !ok || current.Name != "Ann" {
		t.Fatalf("expected current session after load")
	}

	if err := fresh.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := fresh.Current(); ok {
		t.Fatalf("expected no session after logout")
	}
	if _, ok := NewManager(memory, nil, "", "").Load(ctx); ok {
		t.Fatalf("expected session record removed")
	}
}

func TestEmployeeLoginRejections(t *testing.T) {
	ctx := context.Background()
	m, memory, employee := newManager(t)
	for _, pin := range []string{"", "123", "abcde", "99999"} {
		if _, err := m.LoginEmployee(ctx, pin); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("pin %q: expected validation error, got %v", pin, err)
		}
	}
	if _, err := m.store.ToggleEmployeeActive(ctx, employee.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := m.LoginEmployee(ctx, "24680"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("inactive employee should be rejected, got %v", err)
	}
	if _, found, _ := memory.Get(ctx, kv.KeyUser); found {
		t.Fatalf("failed logins must not persist a session")
	}
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)
	if _, err := m.LoginAdmin(ctx, "wrong"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	user, err := m.LoginAdmin(ctx, "s3cret")
	if err != nil || user.Role != models.RoleAdmin || user.ID != AdminID || user.Email != "admin@erosecurity.com" {
		t.Fatalf("unexpected admin session %+v err=%v", user, err)
	}

	unconfigured := NewManager(kv.NewMemoryStore(), nil, "", "")
	if _, err := unconfigured.AuthenticateAdmin("s3cret"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error without a hash, got %v", err)
	}
}

func TestLoadToleratesBadRecords(t *testing.T) {
	ctx := context.Background()
	memory := kv.NewMemoryStore()
	_ = memory.Set(ctx, kv.KeyUser, "{not json")
	m := NewManager(memory, nil, "", "")
	if _, ok := m.Load(ctx); ok {
		t.Fatalf("malformed record should load as signed out")
	}
	memory.GetErr = errors.New("disk gone")
	if _, ok := m.Load(ctx); ok {
		t.Fatalf("read failure should load as signed out")
	}
}

func TestLoginReportsWriteFailure(t *testing.T) {
	ctx := context.Background()
	m, memory, _ := newManager(t)
	memory.SetErr = errors.New("quota exceeded")
	if _, err := m.LoginAdmin(ctx, "s3cret"); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("session should not be current when it was not saved")
	}
}
