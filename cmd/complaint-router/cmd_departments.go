package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

func departmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "departments",
		Short: "Manage routing departments",
	}
	cmd.AddCommand(departmentsListCmd(), departmentsAddCmd(), departmentsRemoveCmd())
	return cmd
}

func departmentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List departments in routing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "departments list")
			if err != nil {
				return err
			}
			defer a.Close()

			depts, err := a.departments.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("departments list: %w", err)
			}
			for i, d := range depts {
				cats := make([]string, 0, len(d.Categories))
				for _, c := range d.Categories {
					cats = append(cats, string(c))
				}
				fmt.Printf("[%d] %s (%s)\n", i+1, d.Name, d.ID)
				fmt.Printf("    Categories: %s | SLA: %dh | Staff: %d\n", strings.Join(cats, ", "), d.SLAHours, len(d.StaffIDs))
			}
			if len(depts) == 0 {
				fmt.Println("No departments configured.")
			}
			return nil
		},
	}
}

func departmentsAddCmd() *cobra.Command {
	var (
		d          models.Department
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "departments add")
			if err != nil {
				return err
			}
			defer a.Close()

			for _, c := range categories {
				d.Categories = append(d.Categories, models.Category(strings.TrimSpace(c)))
			}
			saved, err := a.departments.Save(cmd.Context(), d)
			if err != nil {
				return fmt.Errorf("departments add: %w", err)
			}
			fmt.Printf("Saved department %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&d.ID, "id", "", "department ID (generated when empty)")
	cmd.Flags().StringVar(&d.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "handled categories, comma separated (required)")
	cmd.Flags().IntVar(&d.SLAHours, "sla-hours", 48, "hours to resolve a complaint")
	cmd.Flags().StringSliceVar(&d.StaffIDs, "staff", nil, "staff user IDs notified on SLA warnings")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("categories")
	return cmd
}

func departmentsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [department-id]",
		Short: "Delete a department with no open complaints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "departments remove")
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.departments.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("departments remove: %w", err)
			}
			fmt.Printf("Deleted department %s\n", args[0])
			return nil
		},
	}
}
