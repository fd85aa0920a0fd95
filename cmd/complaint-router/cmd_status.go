package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

func statusCmd() *cobra.Command {
	var note, actor string

	cmd := &cobra.Command{
		Use:   "status [complaint-id] [pending|in_progress|resolved|rejected]",
		Short: "Change a complaint's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "status")
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.complaints.UpdateStatus(cmd.Context(), args[0], models.ComplaintStatus(args[1]), note, actor)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			fmt.Printf("Complaint %s is now %s\n", view.ID, view.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note for the submitter")
	cmd.Flags().StringVar(&actor, "actor", "cli", "who made the change")
	return cmd
}

func reassignCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "reassign [complaint-id] [department-id]",
		Short: "Route an open complaint to another department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "reassign")
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.complaints.Reassign(cmd.Context(), args[0], args[1], actor)
			if err != nil {
				return fmt.Errorf("reassign: %w", err)
			}
			fmt.Printf("Complaint %s assigned to %s, due %s\n", view.ID, view.DepartmentID, view.SLADeadline.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "cli", "who made the change")
	return cmd
}
