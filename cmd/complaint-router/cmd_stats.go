package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show complaint statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "stats")
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.complaints.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: fetching statistics: %w", err)
			}

			fmt.Printf("Total complaints: %d\n", stats.Total)
			fmt.Printf("Open past deadline: %d\n", stats.SLABreachedOpen)
			printCounts("By category", stats.ByCategory)
			printCounts("By status", stats.ByStatus)
			printCounts("By priority", stats.ByPriority)
			printCounts("By department", stats.ByDepartment)
			return nil
		},
	}
}

func printCounts(title string, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-15s %d\n", orNone(k), counts[k])
	}
}
