package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
	"github.com/ajitpratap0/complaint-router/pkg/textnorm"
)

func listCmd() *cobra.Command {
	var (
		status     string
		category   string
		department string
		user       string
		openOnly   bool
		limit      int
		cursor     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored complaints",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "list")
			if err != nil {
				return err
			}
			defer a.Close()

			filters := &store.ComplaintFilters{OpenOnly: openOnly}
			if status != "" {
				st := models.ComplaintStatus(status)
				filters.Status = &st
			}
			if category != "" {
				c := models.Category(category)
				filters.Category = &c
			}
			if department != "" {
				filters.DepartmentID = &department
			}
			if user != "" {
				filters.UserID = &user
			}

			views, next, err := a.complaints.List(cmd.Context(), filters, limit, cursor)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			for i := range views {
				v := &views[i]
				fmt.Printf("[%d] [%s/%s/%s] %s\n", i+1, v.Category, v.Priority, v.Status, textnorm.Truncate(v.Title, 80))
				fmt.Printf("    ID: %s | Dept: %s | SLA: %s (due %s)\n", v.ID, orNone(v.DepartmentID), v.SLAStatus, v.SLADeadline.Format(time.RFC3339))
			}
			if len(views) == 0 {
				fmt.Println("No complaints found.")
			}
			if next != "" {
				fmt.Printf("\nMore results: --cursor %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&department, "department", "", "filter by department ID")
	cmd.Flags().StringVar(&user, "user", "", "filter by submitting user")
	cmd.Flags().BoolVar(&openOnly, "open", false, "only pending and in-progress complaints")
	cmd.Flags().IntVar(&limit, "limit", 50, "max results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [complaint-id]",
		Short: "Show a complaint with its SLA status and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "get")
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.complaints.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}
