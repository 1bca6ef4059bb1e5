package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/snapshot"
)

func newReportsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, generate and schedule PDF reports",
	}
	cmd.AddCommand(
		newReportsListCmd(e),
		newReportsGenerateCmd(e),
		newReportsDownloadCmd(e),
		newReportsScheduleCmd(e),
		newReportsSchedulesCmd(e),
	)
	return cmd
}

// userSession opens a session without the store and requires a login.
func (e *env) userSession(cmd *cobra.Command) (*session, string, error) {
	s, err := e.openSession(cmd.Context(), false)
	if err != nil {
		return nil, "", err
	}
	userID, err := s.requireUser()
	if err != nil {
		return nil, "", err
	}
	return s, userID, nil
}

func newReportsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List generated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, userID, err := e.userSession(cmd)
			if err != nil {
				return err
			}
			reports, err := s.client.Reports(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports.")
				return nil
			}
			t := newTable("ID", "NAME", "TYPE", "GENERATED")
			for _, r := range reports {
				t.Row(r.ID, r.Name, r.Type, r.GeneratedAt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newReportsGenerateCmd(e *env) *cobra.Command {
	var (
		frame    frameFlags
		kpis     []string
		machines []string
	)
	cmd := &cobra.Command{
		Use:   "generate NAME",
		Short: "Generate a report now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(kpis) == 0 {
				return errors.New("at least one --kpi is required")
			}
			tf, err := frame.timeFrame(time.Now())
			if err != nil {
				return err
			}
			s, userID, err := e.userSession(cmd)
			if err != nil {
				return err
			}
			rep, err := s.client.GenerateReport(cmd.Context(), api.ReportRequest{
				UserID:   userID,
				Name:     args[0],
				KPIs:     kpis,
				Machines: machines,
				From:     tf.From,
				To:       tf.To,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %q generated (id %s).\n", rep.Name, rep.ID)
			return nil
		},
	}
	frame.register(cmd)
	cmd.Flags().StringSliceVarP(&kpis, "kpi", "k", nil, "KPI ids to include")
	cmd.Flags().StringSliceVarP(&machines, "machine", "m", nil, "machine ids (default: all)")
	return cmd
}

func newReportsDownloadCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Save a report to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			data, err := s.client.DownloadReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = "report-" + args[0] + ".pdf"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s.\n", len(data), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default report-ID.pdf)")
	return cmd
}

func newReportsScheduleCmd(e *env) *cobra.Command {
	var sched model.Schedule
	cmd := &cobra.Command{
		Use:   "schedule NAME",
		Short: "Schedule a recurring report",
		Example: `  sfdash reports schedule "Weekly energy" --recurrence weekly \
    --email ops@example.com --kpi energy_cost_avg --machine ast-xpimckaf3dlf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched.Name = args[0]
			sched.Status = "active"
			if sched.StartDate == "" {
				sched.StartDate = time.Now().Format(time.DateOnly)
			}
			if _, err := time.Parse(time.DateOnly, sched.StartDate); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			switch strings.ToLower(sched.Recurrence) {
			case "daily", "weekly", "monthly":
				sched.Recurrence = strings.ToLower(sched.Recurrence)
			default:
				return fmt.Errorf("--recurrence must be daily, weekly or monthly, got %q", sched.Recurrence)
			}
			if sched.Email == "" || len(sched.KPIs) == 0 {
				return errors.New("--email and at least one --kpi are required")
			}
			if sched.Machines == nil {
				sched.Machines = []string{}
			}

			s, userID, err := e.userSession(cmd)
			if err != nil {
				return err
			}
			if err := s.client.ScheduleReport(cmd.Context(), userID, sched); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %q scheduled %s from %s.\n", sched.Name, sched.Recurrence, sched.StartDate)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sched.Recurrence, "recurrence", "weekly", "daily, weekly or monthly")
	f.StringVar(&sched.Email, "email", "", "recipient")
	f.StringVar(&sched.StartDate, "start", "", "first run (YYYY-MM-DD, default today)")
	f.StringVar(&sched.MachineType, "machine-type", "", "machine type label")
	f.StringSliceVarP(&sched.KPIs, "kpi", "k", nil, "KPI ids to include")
	f.StringSliceVarP(&sched.Machines, "machine", "m", nil, "machine ids")
	return cmd
}

func newReportsSchedulesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules",
		Short: "List report schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schedules, err := loadSchedules(cmd, e)
			if err != nil {
				return err
			}
			if len(schedules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No schedules.")
				return nil
			}
			t := newTable("ID", "NAME", "RECURRENCE", "STATUS", "START", "EMAIL", "KPIS")
			for _, sc := range schedules {
				t.Row(strconv.Itoa(sc.ID), sc.Name, sc.Recurrence, sc.Status, sc.StartDate, sc.Email,
					strings.Join(sc.KPIs, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// loadSchedules asks the server, falling back to the bundled examples when
// offline.
func loadSchedules(cmd *cobra.Command, e *env) ([]model.Schedule, error) {
	if !e.cfg.Offline {
		s, userID, err := e.userSession(cmd)
		if err != nil {
			return nil, err
		}
		schedules, err := s.client.Schedules(cmd.Context(), userID)
		if !api.IsUnreachable(err) {
			return schedules, err
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Offline: showing example schedules.")
	return snapshot.Embedded().Schedules()
}
