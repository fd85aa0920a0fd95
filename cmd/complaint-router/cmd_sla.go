package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/lifecycle"
	"github.com/ajitpratap0/complaint-router/internal/sla"
)

func slaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sla",
		Short: "Compute SLA deadlines and run the SLA sweep",
	}
	cmd.AddCommand(slaCheckCmd(), slaSweepCmd())
	return cmd
}

func slaCheckCmd() *cobra.Command {
	var (
		createdAt string
		hours     int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show the deadline and SLA status for a creation time",
		RunE: func(cmd *cobra.Command, args []string) error {
			created := time.Now().UTC()
			if createdAt != "" {
				var err error
				created, err = time.Parse(time.RFC3339, createdAt)
				if err != nil {
					return fmt.Errorf("sla check: --created-at must be RFC 3339: %w", err)
				}
			}
			now := time.Now().UTC()
			deadline := sla.Deadline(created, checkHours(cmd, hours, cfg.SLA.DefaultHours))
			fmt.Printf("Deadline:  %s\n", deadline.Format(time.RFC3339))
			fmt.Printf("Status:    %s\n", sla.Status(deadline, now))
			fmt.Printf("Remaining: %s\n", sla.Remaining(deadline, now).Round(time.Minute))
			return nil
		},
	}

	cmd.Flags().StringVar(&createdAt, "created-at", "", "creation time, RFC 3339 (default: now)")
	cmd.Flags().IntVar(&hours, "hours", 0, "SLA hours; zero or negative means already due (default: sla.default_hours)")
	return cmd
}

// checkHours returns the --hours value when it was given, even if zero or
// negative, and the configured default otherwise.
func checkHours(cmd *cobra.Command, hours, defaultHours int) int {
	if cmd.Flags().Changed("hours") {
		return hours
	}
	return defaultHours
}

func slaSweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Notify SLA warnings and breaches and escalate breached complaints",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "sla sweep")
			if err != nil {
				return err
			}
			defer a.Close()

			lm := lifecycle.NewManager(a.store, a.logger)
			report, err := lm.Run(cmd.Context(), time.Now().UTC(), dryRun)
			if err != nil {
				return fmt.Errorf("sla sweep: %w", err)
			}

			fmt.Printf("SLA sweep report:\n")
			fmt.Printf("  Checked:    %d\n", report.Checked)
			fmt.Printf("  Warnings:   %d\n", report.Warnings)
			fmt.Printf("  Breaches:   %d\n", report.Breaches)
			fmt.Printf("  Escalated:  %d\n", report.Escalated)
			fmt.Printf("  Notified:   %d\n", report.Notified)
			if dryRun {
				fmt.Println("  (dry run: no changes applied)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without applying")
	return cmd
}
