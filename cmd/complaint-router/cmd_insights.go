package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func insightsCmd() *cobra.Command {
	var (
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Report complaint patterns and SLA compliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "insights")
			if err != nil {
				return err
			}
			defer a.Close()

			var since time.Time
			if days > 0 {
				since = time.Now().UTC().AddDate(0, 0, -days)
			}
			rep, err := a.reporter.Report(cmd.Context(), since)
			if err != nil {
				return fmt.Errorf("insights: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}

			fmt.Printf("Complaints analyzed: %d\n\n", rep.Total)
			fmt.Println("Patterns:")
			for _, p := range rep.Patterns {
				fmt.Printf("  %-15s %3d%%  %-10s peak: %v\n", p.Category, p.Frequency, p.Trend, p.PeakDays)
				fmt.Printf("  %15s %s\n", "", p.Recommendation)
			}
			fmt.Println("\nSLA compliance:")
			for _, d := range rep.Departments {
				fmt.Printf("  %-20s %5.1f%%  (%d total, %d open, %d breached)\n", d.Name, d.Compliance, d.Total, d.Open, d.Breached)
			}
			if rep.Narrative != "" {
				fmt.Printf("\n%s\n", rep.Narrative)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "only complaints from the last N days (default: all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
