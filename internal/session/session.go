// Package session keeps track of who is signed in. The CLI persists the
// session under the "user" key; the HTTP server only uses the Authenticate
// methods and carries the result in a token.
package session

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

const AdminID = "admin"

type Manager struct {
	kv                kv.Store
	store             *store.Store
	adminPasswordHash string
	adminEmail        string

	mu      sync.Mutex
	current *models.SessionUser
}

func NewManager(kvStore kv.Store, st *store.Store, adminPasswordHash, adminEmail string) *Manager {
	return &Manager{kv: kvStore, store: st, adminPasswordHash: adminPasswordHash, adminEmail: adminEmail}
}

// Load restores the persisted session. An unreadable record is treated as
// signed out.
func (m *Manager) Load(ctx context.Context) (models.SessionUser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	raw, found, err := m.kv.Get(ctx, kv.KeyUser)
	if err != nil {
		log.Printf("[session] read session failed, treating as signed out: %v", err)
		return models.SessionUser{}, false
	}
	if !found || raw == "" {
		return models.SessionUser{}, false
	}
	var user models.SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		log.Printf("[session] discarding malformed session record: %v", err)
		return models.SessionUser{}, false
	}
	m.current = &user
	return user, true
}

func (m *Manager) Current() (models.SessionUser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.SessionUser{}, false
	}
	return *m.current, true
}

// AuthenticateEmployee resolves an active employee by PIN. The session id is
// the employee id.
func (m *Manager) AuthenticateEmployee(ctx context.Context, pin string) (models.SessionUser, error) {
	pin = strings.TrimSpace(pin)
	if !utils.ValidPIN(pin) {
		return models.SessionUser{}, apperr.Validation("please enter your 5-digit PIN")
	}
	employee, err := m.store.EmployeeByPIN(ctx, pin)
	if err != nil {
		if apperr.IsNotFound(err) {
			return models.SessionUser{}, apperr.Validation("invalid PIN or inactive account")
		}
		return models.SessionUser{}, err
	}
	if !employee.IsActive {
		return models.SessionUser{}, apperr.Validation("invalid PIN or inactive account")
	}
	return models.SessionUser{
		ID:    employee.ID,
		Name:  employee.Name,
		Role:  models.RoleEmployee,
		Email: employee.Email,
		PIN:   employee.PIN,
	}, nil
}

func (m *Manager) AuthenticateAdmin(password string) (models.SessionUser, error) {
	if m.adminPasswordHash == "" {
		return models.SessionUser{}, apperr.Validation("admin sign-in is not configured")
	}
	if password == "" || !utils.CheckPassword(m.adminPasswordHash, password) {
		return models.SessionUser{}, apperr.Validation("invalid admin password")
	}
	return models.SessionUser{
		ID:    AdminID,
		Name:  "Admin User",
		Role:  models.RoleAdmin,
		Email: m.adminEmail,
	}, nil
}

func (m *Manager) LoginEmployee(ctx context.Context, pin string) (models.SessionUser, error) {
	user, err := m.AuthenticateEmployee(ctx, pin)
	if err != nil {
		return models.SessionUser{}, err
	}
	return user, m.persist(ctx, user)
}

func (m *Manager) LoginAdmin(ctx context.Context, password string) (models.SessionUser, error) {
	user, err := m.AuthenticateAdmin(password)
	if err != nil {
		return models.SessionUser{}, err
	}
	return user, m.persist(ctx, user)
}

func (m *Manager) persist(ctx context.Context, user models.SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return apperr.Storage("encode session", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Set(ctx, kv.KeyUser, string(data)); err != nil {
		return apperr.Storage("write session", err)
	}
	m.current = &user
	return nil
}

// Logout clears the session in memory even when the stored record could not
// be removed.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	if err := m.kv.Remove(ctx, kv.KeyUser); err != nil {
		return apperr.Storage("remove session", err)
	}
	return nil
}
