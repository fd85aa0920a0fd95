package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func notificationsCmd() *cobra.Command {
	var (
		unread   bool
		limit    int
		markRead string
	)

	cmd := &cobra.Command{
		Use:   "notifications [user-id]",
		Short: "Show a user's notifications, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "notifications")
			if err != nil {
				return err
			}
			defer a.Close()

			if markRead != "" {
				if err := a.complaints.MarkRead(cmd.Context(), args[0], markRead); err != nil {
					return fmt.Errorf("notifications: %w", err)
				}
				fmt.Printf("Marked %s as read\n", markRead)
				return nil
			}

			notes, err := a.complaints.Notifications(cmd.Context(), args[0], unread, limit)
			if err != nil {
				return fmt.Errorf("notifications: %w", err)
			}
			for _, n := range notes {
				flag := " "
				if !n.Read {
					flag = "*"
				}
				fmt.Printf("%s %s [%s] %s\n", flag, n.CreatedAt.Format(time.RFC3339), n.Kind, n.Message)
				fmt.Printf("    ID: %s | Complaint: %s\n", n.ID, n.ComplaintID)
			}
			if len(notes) == 0 {
				fmt.Println("No notifications.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 20, "max results")
	cmd.Flags().StringVar(&markRead, "mark-read", "", "mark the given notification ID as read")
	return cmd
}
