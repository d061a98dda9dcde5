package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/app"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/kv"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	hash, err := utils.HashPassword("letmein")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return app.New(config.Config{TimezoneName: "UTC", AdminPasswordHash: hash, AdminEmail: "admin@example.com"}, kv.NewMemoryStore())
}

// run executes one command line against a fresh root command sharing the
// same application, like separate shell invocations over one database.
func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func() (*app.App, error) { return a, nil }
	root := newRootCmd(open, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedOnlyOnce(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "John Smith") {
		t.Fatalf("seed output missing roster: %q", out)
	}

	out, err = run(t, a, "seed")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "nothing seeded") {
		t.Fatalf("second seed output = %q", out)
	}
}

func TestCommandsRequireSession(t *testing.T) {
	a := newTestApp(t)

	if _, err := run(t, a, "checkin", "--lat", "1", "--lon", "2"); err != errNotSignedIn {
		t.Fatalf("checkin without session err = %v", err)
	}
	if _, err := run(t, a, "login", "--password", "wrong"); err == nil {
		t.Fatal("expected bad password to fail")
	}
	if _, err := run(t, a, "login"); err == nil {
		t.Fatal("expected missing credentials to fail")
	}
}

func TestEmployeeDayFromTheTerminal(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	if _, err := run(t, a, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	employee, err := a.Store.Employee(ctx, "1")
	if err != nil {
		t.Fatalf("employee: %v", err)
	}
	locations, err := a.Store.ListLocations(ctx)
	if err != nil || len(locations) == 0 {
		t.Fatalf("locations: %v", err)
	}
	if _, err := a.Store.CreateShift(ctx, store.ShiftInput{
		EmployeeID: employee.ID,
		LocationID: locations[0].ID,
		Date:       a.Lifecycle.Today(),
		StartTime:  "00:00",
		EndTime:    "23:59",
	}); err != nil {
		t.Fatalf("create shift: %v", err)
	}

	if _, err := run(t, a, "login", "--pin", employee.PIN); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := run(t, a, "whoami")
	if err != nil || !strings.Contains(out, "John Smith") {
		t.Fatalf("whoami = %q, %v", out, err)
	}

	if _, err := run(t, a, "checkin"); err == nil || !strings.Contains(err.Error(), "location") {
		t.Fatalf("checkin without position err = %v", err)
	}
	out, err = run(t, a, "checkin", "--lat", "40.7", "--lon", "-74.0", "--notes", "gate B")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if !strings.Contains(out, locations[0].Name) {
		t.Fatalf("checkin output = %q", out)
	}
	if _, err := run(t, a, "checkin", "--lat", "40.7", "--lon", "-74.0"); err == nil {
		t.Fatal("expected second checkin to fail")
	}
	if _, err := run(t, a, "sweep-missed"); err == nil {
		t.Fatal("employee must not sweep")
	}

	out, err = run(t, a, "checkout")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !strings.Contains(out, "worked") {
		t.Fatalf("checkout output = %q", out)
	}

	out, err = run(t, a, "verify")
	if err != nil {
		t.Fatalf("verify: %v (%s)", err, out)
	}

	if _, err := run(t, a, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := run(t, a, "whoami"); err != errNotSignedIn {
		t.Fatalf("whoami after logout err = %v", err)
	}
}

func TestAdminReportExport(t *testing.T) {
	a := newTestApp(t)
	if _, err := run(t, a, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := run(t, a, "login", "--password", "letmein"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := run(t, a, "report", "--period", "fortnight"); err == nil {
		t.Fatal("expected unknown period to fail")
	}

	path := filepath.Join(t.TempDir(), "hours.xlsx")
	out, err := run(t, a, "report", "--period", "all", "--xlsx", path)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "period all") || !strings.Contains(out, "wrote") {
		t.Fatalf("report output = %q", out)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	book, err := excelize.OpenReader(f)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if idx, _ := book.GetSheetIndex("Summary"); idx < 0 {
		t.Fatalf("summary sheet missing: %v", book.GetSheetList())
	}

	out, err = run(t, a, "sweep-missed")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "marked 0 shifts missed") {
		t.Fatalf("sweep output = %q", out)
	}
}

func TestHashPassword(t *testing.T) {
	a := newTestApp(t)
	out, err := run(t, a, "hash-password", "s3cret")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	if !utils.CheckPassword(strings.TrimSpace(out), "s3cret") {
		t.Fatalf("hash %q does not verify", out)
	}
	if _, err := run(t, a, "hash-password"); err == nil {
		t.Fatal("expected missing argument to fail")
	}
}
