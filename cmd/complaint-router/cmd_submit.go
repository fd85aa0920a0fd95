package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/intake"
	"github.com/ajitpratap0/complaint-router/internal/models"
)

func submitCmd() *cobra.Command {
	var req intake.SubmitRequest
	var category, priority string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a complaint for classification and routing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "submit")
			if err != nil {
				return err
			}
			defer a.Close()

			req.Category = models.Category(category)
			req.Priority = models.Priority(priority)
			view, err := a.complaints.Submit(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}

			fmt.Printf("Submitted complaint %s\n", view.ID)
			fmt.Printf("  Category:   %s (classifier: %s, confidence %.2f)\n", view.Category, view.AICategory, view.Confidence)
			fmt.Printf("  Priority:   %s (classifier: %s)\n", view.Priority, view.AIPriority)
			fmt.Printf("  Department: %s\n", orNone(view.DepartmentID))
			fmt.Printf("  Deadline:   %s (%dh)\n", view.SLADeadline.Format(time.RFC3339), view.SLAHours)
			if len(view.Keywords) > 0 {
				fmt.Printf("  Keywords:   %v\n", view.Keywords)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.UserID, "user", "", "submitting user ID (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "complaint title (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "complaint description (required)")
	cmd.Flags().StringVar(&category, "category", "", "override category")
	cmd.Flags().StringVar(&priority, "priority", "", "override priority")
	cmd.Flags().StringVar(&req.DepartmentID, "department", "", "route to this department")
	cmd.Flags().StringSliceVar(&req.ImageURLs, "image", nil, "attached image URL (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
