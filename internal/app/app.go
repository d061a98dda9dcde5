// Package app wires configuration, storage and the domain services together
// for the server and the command-line tool.
package app

import (
	"context"
	"log"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/checkin"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/db"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/email"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/geo"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/handlers"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/lifecycle"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/session"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

type App struct {
	Config    config.Config
	KV        kv.Store
	Store     *store.Store
	Lifecycle *lifecycle.Service
	Recorder  *checkin.Recorder
	Sessions  *session.Manager
	Notifier  handlers.PINNotifier
}

// Open connects to the configured database and builds the services on top of
// it.
func Open(cfg config.Config) (*App, error) {
	database, err := db.Open(cfg.DbDriver, cfg.DbDsn)
	if err != nil {
		return nil, err
	}
	return New(cfg, kv.NewGormStore(database)), nil
}

// New builds the services over an existing key-value store.
func New(cfg config.Config, kvStore kv.Store) *App {
	st := store.New(kvStore)
	lc := lifecycle.NewService(st, cfg.Location())

	var geocoder geo.Geocoder = geo.NopGeocoder{}
	if cfg.GeocoderURL != "" {
		geocoder = geo.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeoutDuration())
	}

	a := &App{
		Config:    cfg,
		KV:        kvStore,
		Store:     st,
		Lifecycle: lc,
		Recorder:  checkin.NewRecorder(st, lc, geocoder),
		Sessions:  session.NewManager(kvStore, st, cfg.AdminPasswordHash, cfg.AdminEmail),
	}
	if cfg.SmtpEnabled() {
		a.Notifier = email.NewMailer(email.Config{
			Host:     cfg.SmtpHost,
			Port:     cfg.SmtpPort,
			Username: cfg.SmtpUser,
			Password: cfg.SmtpPass,
			From:     cfg.SmtpFrom,
		})
	}
	return a
}

// Migrate runs the startup backfill and logs what it changed.
func (a *App) Migrate(ctx context.Context) error {
	report, err := a.Store.Migrate(ctx)
	if err != nil {
		return err
	}
	if report.PINsAssigned > 0 || report.ShiftsLinked > 0 {
		log.Printf("[app] migration assigned %d PINs and linked %d shifts", report.PINsAssigned, report.ShiftsLinked)
	}
	return nil
}
