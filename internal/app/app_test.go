package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/geo"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
)

func TestNewWiresOptionalCollaborators(t *testing.T) {
	cfg := config.Config{TimezoneName: "UTC", GeocoderTimeout: 1}
	a := New(cfg, kv.NewMemoryStore())
	if a.Notifier != nil {
		t.Fatalf("notifier should be nil without SMTP settings")
	}
	if _, ok := a.Recorder.Geocoder.(geo.NopGeocoder); !ok {
		t.Fatalf("expected nop geocoder, got %T", a.Recorder.Geocoder)
	}
	if a.Lifecycle.Location != time.UTC {
		t.Fatalf("expected UTC lifecycle, got %v", a.Lifecycle.Location)
	}

	cfg.GeocoderURL = "http://localhost:8088"
	cfg.SmtpHost = "smtp.example.com"
	cfg.SmtpFrom = "noreply@example.com"
	a = New(cfg, kv.NewMemoryStore())
	if a.Notifier == nil {
		t.Fatalf("expected SMTP notifier")
	}
	if _, ok := a.Recorder.Geocoder.(*geo.NominatimGeocoder); !ok {
		t.Fatalf("expected nominatim geocoder, got %T", a.Recorder.Geocoder)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := config.Config{DbDriver: "sqlite", DbDsn: "file::memory:?cache=shared", TimezoneName: "UTC"}
	a, err := Open(cfg)
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if _, err := a.Store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := a.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	employees, err := a.Store.ListEmployees(ctx)
	if err != nil || len(employees) != 3 {
		t.Fatalf("expected seeded employees through sqlite, got %d err=%v", len(employees), err)
	}
}
