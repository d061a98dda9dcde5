package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/app"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/geo"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

var errNotSignedIn = errors.New("not signed in, run: shiftctl login")

type cli struct {
	open func() (*app.App, error)
	out  io.Writer
	app  *app.App
}

func newRootCmd(open func() (*app.App, error), out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}

	root := &cobra.Command{
		Use:           "shiftctl",
		Short:         "Guard shift scheduling and attendance from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		c.seedCmd(),
		c.migrateCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.shiftsCmd(),
		c.checkInCmd(),
		c.checkOutCmd(),
		c.sweepCmd(),
		c.reportCmd(),
		c.verifyCmd(),
		c.hashPasswordCmd(),
	)
	return root
}

// services opens the application once and restores the saved session.
func (c *cli) services(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open()
	if err != nil {
		return nil, err
	}
	a.Sessions.Load(ctx)
	c.app = a
	return a, nil
}

func (c *cli) signedIn(ctx context.Context, role string) (*app.App, models.SessionUser, error) {
	a, err := c.services(ctx)
	if err != nil {
		return nil, models.SessionUser{}, err
	}
	user, ok := a.Sessions.Current()
	if !ok {
		return nil, models.SessionUser{}, errNotSignedIn
	}
	if role != "" && user.Role != role {
		return nil, models.SessionUser{}, fmt.Errorf("this command requires the %s role", role)
	}
	return a, user, nil
}

func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(apperr.Message(err))
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the sample roster and sites if none exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			seeded, err := a.Store.Seed(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if !seeded {
				fmt.Fprintln(c.out, "data already present, nothing seeded")
				return nil
			}
			employees, err := a.Store.ListEmployees(cmd.Context())
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(c.out, "seeded sample data:")
			for _, employee := range employees {
				fmt.Fprintf(c.out, "  %s  PIN %s\n", employee.Name, employee.PIN)
			}
			return nil
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Backfill PINs and link legacy shifts to employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.Store.Migrate(cmd.Context())
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "assigned %d PINs, linked %d shifts\n", result.PINsAssigned, result.ShiftsLinked)
			return nil
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var pin, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an employee (--pin) or the administrator (--password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			var user models.SessionUser
			switch {
			case pin != "":
				user, err = a.Sessions.LoginEmployee(cmd.Context(), pin)
			case password != "":
				user, err = a.Sessions.LoginAdmin(cmd.Context(), password)
			default:
				return errors.New("--pin or --password is required")
			}
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "signed in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "Employee 5-digit PIN")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Sessions.Logout(cmd.Context()); err != nil {
				return userError(err)
			}
			fmt.Fprintln(c.out, "signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, user, err := c.signedIn(cmd.Context(), "")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s <%s> %s\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}

func (c *cli) shiftsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "List shifts: your upcoming ones, or every shift on --date for an admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := c.signedIn(cmd.Context(), "")
			if err != nil {
				return err
			}
			var shifts []models.Shift
			if user.Role == models.RoleAdmin {
				if date == "" {
					date = a.Lifecycle.Today()
				}
				shifts, err = a.Lifecycle.ShiftsForDate(cmd.Context(), date)
			} else {
				shifts, err = a.Lifecycle.Upcoming(cmd.Context(), user.ID, 5)
			}
			if err != nil {
				return userError(err)
			}
			printShifts(c.out, shifts)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to list (YYYY-MM-DD), admin only")
	return cmd
}

func printShifts(out io.Writer, shifts []models.Shift) {
	if len(shifts) == 0 {
		fmt.Fprintln(out, "no shifts")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tEMPLOYEE\tLOCATION\tSTATUS")
	for _, shift := range shifts {
		fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\n", shift.Date, shift.StartTime, shift.EndTime, shift.EmployeeName, shift.LocationName, shift.Status)
	}
	_ = w.Flush()
}

func (c *cli) checkInCmd() *cobra.Command {
	var lat, lon, accuracy float64
	var notes string
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Check in to today's shift at the given position",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := c.signedIn(cmd.Context(), models.RoleEmployee)
			if err != nil {
				return err
			}
			provider := geo.StaticProvider{}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				provider.Fix = &geo.Fix{Latitude: lat, Longitude: lon, Accuracy: accuracy}
			}
			record, err := a.Recorder.CheckIn(cmd.Context(), user.ID, provider, notes)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "checked in at %s, %s\n", record.LocationName, record.CheckInTime.Format(time.Kitchen))
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the current position")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the current position")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Accuracy radius in metres")
	cmd.Flags().StringVar(&notes, "notes", "", "Optional note for the supervisor")
	return cmd
}

func (c *cli) checkOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Check out of the open session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := c.signedIn(cmd.Context(), models.RoleEmployee)
			if err != nil {
				return err
			}
			record, err := a.Recorder.CheckOutEmployee(cmd.Context(), user.ID)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "checked out, worked %s\n", report.FormatHours(report.HoursWorked(record)))
			return nil
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "sweep-missed",
		Short: "Mark scheduled shifts that already ended as missed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.signedIn(cmd.Context(), models.RoleAdmin)
			if err != nil {
				return err
			}
			cutoff := a.Store.Now()
			if before != "" {
				cutoff, err = time.Parse(time.RFC3339, before)
				if err != nil {
					return fmt.Errorf("invalid --before: %w", err)
				}
			}
			swept, err := a.Lifecycle.SweepMissed(cmd.Context(), cutoff)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "marked %d shifts missed\n", len(swept))
			printShifts(c.out, swept)
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Cutoff instant (RFC 3339), defaults to now")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var period, xlsxPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print hours worked per employee and location",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.signedIn(cmd.Context(), models.RoleAdmin)
			if err != nil {
				return err
			}
			p, err := report.ParsePeriod(period)
			if err != nil {
				return userError(err)
			}
			ctx := cmd.Context()
			checkIns, err := a.Store.ListCheckIns(ctx, store.CheckInFilter{})
			if err != nil {
				return userError(err)
			}
			employees, err := a.Store.ListEmployees(ctx)
			if err != nil {
				return userError(err)
			}
			locations, err := a.Store.ListLocations(ctx)
			if err != nil {
				return userError(err)
			}
			r := report.Build(checkIns, employees, locations, p, a.Store.Now())
			printReport(c.out, r)

			if xlsxPath == "" {
				return nil
			}
			f, err := os.Create(xlsxPath)
			if err != nil {
				return err
			}
			if err := report.WriteXLSX(f, r); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %s\n", xlsxPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "week", "week, month or all")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to this .xlsx file")
	return cmd
}

func printReport(out io.Writer, r report.Report) {
	fmt.Fprintf(out, "period %s: %s worked, %s overtime, %d employees, %d locations\n",
		r.Period, report.FormatHours(r.Summary.TotalHours), report.FormatHours(r.Summary.TotalOvertime),
		r.Summary.TotalEmployees, r.Summary.TotalLocations)
	if len(r.TimeReports) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMPLOYEE\tLOCATION\tHOURS\tOVERTIME\tCHECK-INS")
	for _, tr := range r.TimeReports {
		overtime := ""
		if tr.Overtime > 0 {
			overtime = "+" + report.FormatHours(tr.Overtime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", tr.EmployeeName, tr.LocationName, report.FormatHours(tr.HoursWorked), overtime, len(tr.CheckIns))
	}
	_ = w.Flush()
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Report shifts whose status disagrees with their check-ins",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			mismatches, err := a.Lifecycle.Verify(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if len(mismatches) == 0 {
				fmt.Fprintln(c.out, "all shift statuses agree with the check-in log")
				return nil
			}
			for _, m := range mismatches {
				fmt.Fprintf(c.out, "shift %s: stored %s, check-ins imply %s\n", m.ShiftID, m.Stored, m.Derived)
			}
			return fmt.Errorf("%d shifts out of step", len(mismatches))
		},
	}
}

func (c *cli) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return errors.New("password must not be empty")
			}
			hash, err := utils.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, hash)
			return nil
		},
	}
}
