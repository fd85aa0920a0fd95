// Package notify appends entries to the per-user notification log.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/complaint-router/internal/metrics"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

// Notifier writes notifications to the store. Delivery (email, push) is not its concern.
type Notifier struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewNotifier creates a Notifier backed by st.
func NewNotifier(st store.Store, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:  st,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Send appends one notification per distinct, non-empty user ID and returns
// how many were written. Failures are logged and skipped so that a broken
// notification log never blocks the complaint workflow.
func (n *Notifier) Send(ctx context.Context, userIDs []string, complaintID string, kind models.NotificationKind, message string) int {
	seen := make(map[string]struct{}, len(userIDs))
	sent := 0
	for _, uid := range userIDs {
		if uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}

		note := models.Notification{
			ID:          uuid.NewString(),
			UserID:      uid,
			ComplaintID: complaintID,
			Kind:        kind,
			Message:     message,
			CreatedAt:   n.now(),
		}
		if err := n.store.AppendNotification(ctx, note); err != nil {
			n.logger.Warn("appending notification", "user_id", uid, "complaint_id", complaintID, "kind", kind, "error", err)
			continue
		}
		metrics.Inc(metrics.NotificationsTotal)
		sent++
	}
	return sent
}
