// Package store is the entity store: typed collections of employees,
// locations, shifts, check-ins and calendar events kept as JSON arrays in a
// kv.Store. Uniqueness and cascade rules live here and nowhere else.
//
// Every mutation runs inside Update, which holds the store's write lock for
// the whole read-modify-write cycle and persists only the collections it
// changed. Reads run inside View. A read failure inside View degrades to an
// empty collection; inside Update it aborts the mutation, so a transient
// failure is never written back as "no data".
package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

type Store struct {
	kv     kv.Store
	mu     sync.RWMutex
	now    func() time.Time
	newPIN func() (string, error)
	newID  func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithPINGenerator(fn func() (string, error)) Option {
	return func(s *Store) { s.newPIN = fn }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(kvStore kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kvStore,
		now:    time.Now,
		newPIN: utils.GeneratePIN,
		newID:  models.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) NewID() string {
	return s.newID()
}

// Update runs fn with exclusive access and writes back every collection fn
// changed. Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(ctx, s, true)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// View runs fn against a read-only snapshot. Changes fn makes are discarded.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newTx(ctx, s, false))
}

type collection[T any] struct {
	key    string
	items  []T
	loaded bool
	found  bool
	dirty  bool
}

type Tx struct {
	ctx       context.Context
	store     *Store
	writable  bool
	employees collection[models.Employee]
	locations collection[models.Location]
	shifts    collection[models.Shift]
	checkIns  collection[models.CheckIn]
	events    collection[models.CalendarEvent]

	pinsAssigned int
}

func newTx(ctx context.Context, s *Store, writable bool) *Tx {
	return &Tx{
		ctx:       ctx,
		store:     s,
		writable:  writable,
		employees: collection[models.Employee]{key: kv.KeyEmployees},
		locations: collection[models.Location]{key: kv.KeyLocations},
		shifts:    collection[models.Shift]{key: kv.KeyShifts},
		checkIns:  collection[models.CheckIn]{key: kv.KeyCheckIns},
		events:    collection[models.CalendarEvent]{key: kv.KeyEvents},
	}
}

func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func (tx *Tx) Now() time.Time {
	return tx.store.now()
}

func load[T any](tx *Tx, c *collection[T]) ([]T, error) {
	if c.loaded {
		return c.items, nil
	}
	raw, found, err := tx.store.kv.Get(tx.ctx, c.key)
	if err == nil && found && raw != "" {
		var items []T
		if decodeErr := json.Unmarshal([]byte(raw), &items); decodeErr != nil {
			err = decodeErr
		} else {
			c.items = items
		}
	}
	if err != nil {
		if tx.writable {
			return nil, apperr.Storage("read "+c.key, err)
		}
		// A failed read looks exactly like an empty collection from here on.
		log.Printf("[store] read %s failed, treating as empty: %v", c.key, err)
		c.items = nil
	}
	c.loaded = true
	c.found = found
	return c.items, nil
}

func save[T any](tx *Tx, dst kv.Store, c *collection[T]) error {
	if !c.dirty {
		return nil
	}
	items := c.items
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return apperr.Storage("encode "+c.key, err)
	}
	if err := dst.Set(tx.ctx, c.key, string(data)); err != nil {
		return apperr.Storage("write "+c.key, err)
	}
	return nil
}

// commit writes every changed collection in one batch when the key-value
// store supports it. Otherwise children are written before parents so an
// interrupted cascade leaves parents without children rather than children
// pointing at nothing.
func (tx *Tx) commit() error {
	if batcher, ok := tx.store.kv.(kv.Batcher); ok {
		return batcher.Batch(tx.ctx, tx.saveAll)
	}
	return tx.saveAll(tx.store.kv)
}

func (tx *Tx) saveAll(dst kv.Store) error {
	if err := save(tx, dst, &tx.checkIns); err != nil {
		return err
	}
	if err := save(tx, dst, &tx.shifts); err != nil {
		return err
	}
	if err := save(tx, dst, &tx.events); err != nil {
		return err
	}
	if err := save(tx, dst, &tx.employees); err != nil {
		return err
	}
	return save(tx, dst, &tx.locations)
}

func (tx *Tx) Employees() ([]models.Employee, error) {
	if tx.employees.loaded {
		return tx.employees.items, nil
	}
	items, err := load(tx, &tx.employees)
	if err != nil {
		return nil, err
	}
	if tx.writable {
		if err := tx.backfillPINs(items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (tx *Tx) SetEmployees(items []models.Employee) {
	tx.employees.items = items
	tx.employees.loaded = true
	tx.employees.dirty = true
}

func (tx *Tx) Locations() ([]models.Location, error) {
	return load(tx, &tx.locations)
}

func (tx *Tx) SetLocations(items []models.Location) {
	tx.locations.items = items
	tx.locations.loaded = true
	tx.locations.dirty = true
}

func (tx *Tx) Shifts() ([]models.Shift, error) {
	if tx.shifts.loaded {
		return tx.shifts.items, nil
	}
	items, err := load(tx, &tx.shifts)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if !items[i].Status.Valid() {
			items[i].Status = models.ShiftScheduled
		}
	}
	return items, nil
}

func (tx *Tx) SetShifts(items []models.Shift) {
	tx.shifts.items = items
	tx.shifts.loaded = true
	tx.shifts.dirty = true
}

func (tx *Tx) CheckIns() ([]models.CheckIn, error) {
	return load(tx, &tx.checkIns)
}

func (tx *Tx) SetCheckIns(items []models.CheckIn) {
	tx.checkIns.items = items
	tx.checkIns.loaded = true
	tx.checkIns.dirty = true
}

func (tx *Tx) Events() ([]models.CalendarEvent, error) {
	if tx.events.loaded {
		return tx.events.items, nil
	}
	items, err := load(tx, &tx.events)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if !items[i].Type.Valid() {
			items[i].Type = models.EventGeneral
		}
	}
	return items, nil
}

func (tx *Tx) SetEvents(items []models.CalendarEvent) {
	tx.events.items = items
	tx.events.loaded = true
	tx.events.dirty = true
}

func (tx *Tx) Employee(id string) (models.Employee, error) {
	employees, err := tx.Employees()
	if err != nil {
		return models.Employee{}, err
	}
	for _, employee := range employees {
		if employee.ID == id {
			return employee, nil
		}
	}
	return models.Employee{}, apperr.NotFound("employee not found")
}

func (tx *Tx) Location(id string) (models.Location, error) {
	locations, err := tx.Locations()
	if err != nil {
		return models.Location{}, err
	}
	for _, location := range locations {
		if location.ID == id {
			return location, nil
		}
	}
	return models.Location{}, apperr.NotFound("location not found")
}

func (tx *Tx) Shift(id string) (models.Shift, error) {
	shifts, err := tx.Shifts()
	if err != nil {
		return models.Shift{}, err
	}
	for _, shift := range shifts {
		if shift.ID == id {
			return shift, nil
		}
	}
	return models.Shift{}, apperr.NotFound("shift not found")
}

// SaveShift replaces the stored shift with the same id.
func (tx *Tx) SaveShift(shift models.Shift) error {
	shifts, err := tx.Shifts()
	if err != nil {
		return err
	}
	for i := range shifts {
		if shifts[i].ID == shift.ID {
			shifts[i] = shift
			tx.SetShifts(shifts)
			return nil
		}
	}
	return apperr.NotFound("shift not found")
}

func (tx *Tx) CheckIn(id string) (models.CheckIn, error) {
	checkIns, err := tx.CheckIns()
	if err != nil {
		return models.CheckIn{}, err
	}
	for _, checkIn := range checkIns {
		if checkIn.ID == id {
			return checkIn, nil
		}
	}
	return models.CheckIn{}, apperr.NotFound("check-in not found")
}

func (tx *Tx) SaveCheckIn(checkIn models.CheckIn) error {
	checkIns, err := tx.CheckIns()
	if err != nil {
		return err
	}
	for i := range checkIns {
		if checkIns[i].ID == checkIn.ID {
			checkIns[i] = checkIn
			tx.SetCheckIns(checkIns)
			return nil
		}
	}
	return apperr.NotFound("check-in not found")
}

func (tx *Tx) AddCheckIn(checkIn models.CheckIn) error {
	checkIns, err := tx.CheckIns()
	if err != nil {
		return err
	}
	tx.SetCheckIns(append(checkIns, checkIn))
	return nil
}

// OpenCheckIn returns the employee's session without a check-out time.
func (tx *Tx) OpenCheckIn(employeeID string) (models.CheckIn, bool, error) {
	checkIns, err := tx.CheckIns()
	if err != nil {
		return models.CheckIn{}, false, err
	}
	for _, checkIn := range checkIns {
		if checkIn.EmployeeID == employeeID && checkIn.Open() {
			return checkIn, true, nil
		}
	}
	return models.CheckIn{}, false, nil
}
