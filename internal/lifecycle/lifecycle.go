// Package lifecycle runs the periodic SLA sweep over open complaints.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajitpratap0/complaint-router/internal/metrics"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/notify"
	"github.com/ajitpratap0/complaint-router/internal/sla"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

// Report summarizes the results of a sweep.
type Report struct {
	Checked   int `json:"checked"`
	Warnings  int `json:"warnings"`
	Breaches  int `json:"breaches"`
	Escalated int `json:"escalated"`
	Notified  int `json:"notified"`
}

// Manager handles SLA lifecycle operations.
type Manager struct {
	store    store.Store
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewManager creates a new lifecycle manager.
func NewManager(st store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:    st,
		notifier: notify.NewNotifier(st, logger),
		logger:   logger,
	}
}

// errNoLongerDue means the complaint changed between the listing and the write.
var errNoLongerDue = errors.New("complaint no longer due for sla notification")

// Run evaluates every open complaint at now. The first warning and the first
// breach of each complaint are notified once; a breach also raises priority
// one level. With dryRun nothing is written and no notification is sent.
func (m *Manager) Run(ctx context.Context, now time.Time, dryRun bool) (*Report, error) {
	open, err := store.ListAll(ctx, m.store, &store.ComplaintFilters{OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("listing open complaints: %w", err)
	}

	staff := m.staffByDepartment(ctx)
	report := &Report{}

	for i := range open {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		kind, ok := due(&open[i], now)
		if !ok {
			continue
		}

		if dryRun {
			report.count(kind, open[i].Priority)
			m.logThreshold(&open[i], kind, true)
			continue
		}

		// The listed copy may be stale; decide again on the stored one.
		var before models.Priority
		c, err := m.store.UpdateComplaint(ctx, open[i].ID, func(cur *models.Complaint) error {
			if k, ok := due(cur, now); !ok || k != kind {
				return errNoLongerDue
			}
			before = cur.Priority
			markNotified(cur, kind, now)
			return nil
		})
		if errors.Is(err, errNoLongerDue) || errors.Is(err, store.ErrNotFound) {
			m.logger.Debug("complaint changed during sla sweep, skipping", "id", open[i].ID)
			continue
		}
		if err != nil {
			m.logger.Error("updating complaint after sla check", "id", open[i].ID, "error", err)
			continue
		}

		report.count(kind, before)
		if kind == models.NotifySLABreached {
			metrics.Inc(metrics.SLABreachedTotal)
		} else {
			metrics.Inc(metrics.SLAWarningTotal)
		}
		m.logThreshold(c, kind, false)

		recipients := append([]string{c.UserID}, staff[c.DepartmentID]...)
		report.Notified += m.notifier.Send(ctx, recipients, c.ID, kind, message(*c, kind, before))
	}

	return report, nil
}

func (r *Report) count(kind models.NotificationKind, before models.Priority) {
	if kind == models.NotifySLAWarning {
		r.Warnings++
		return
	}
	r.Breaches++
	if before != models.PriorityUrgent {
		r.Escalated++
	}
}

// due returns the notification an open complaint is owed at now, if any.
func due(c *models.Complaint, now time.Time) (models.NotificationKind, bool) {
	if !c.Status.IsOpen() {
		return "", false
	}
	switch sla.ComplaintStatus(*c, now) {
	case models.SLABreached:
		if !c.SLABreachNotified {
			return models.NotifySLABreached, true
		}
	case models.SLAWarning:
		if !c.SLAWarningNotified {
			return models.NotifySLAWarning, true
		}
	}
	return "", false
}

func markNotified(c *models.Complaint, kind models.NotificationKind, now time.Time) {
	if kind == models.NotifySLABreached {
		c.SLABreachNotified = true
		// A complaint that skipped the warning window never gets a late warning.
		c.SLAWarningNotified = true
		c.Priority = c.Priority.Raise()
	} else {
		c.SLAWarningNotified = true
	}
	c.UpdatedAt = now
}

func (m *Manager) logThreshold(c *models.Complaint, kind models.NotificationKind, dryRun bool) {
	m.logger.Info("sla threshold crossed",
		"id", c.ID,
		"kind", kind,
		"deadline", c.SLADeadline,
		"department", c.DepartmentID,
		"dry_run", dryRun,
	)
}

func (m *Manager) staffByDepartment(ctx context.Context) map[string][]string {
	out := make(map[string][]string)
	depts, err := m.store.ListDepartments(ctx)
	if err != nil {
		m.logger.Warn("listing departments for sla sweep", "error", err)
		return out
	}
	for _, d := range depts {
		out[d.ID] = d.StaffIDs
	}
	return out
}

func message(c models.Complaint, kind models.NotificationKind, before models.Priority) string {
	if kind == models.NotifySLAWarning {
		return fmt.Sprintf("Complaint %q is due by %s.", c.Title, c.SLADeadline.Format(time.RFC1123))
	}
	msg := fmt.Sprintf("Complaint %q missed its deadline of %s.", c.Title, c.SLADeadline.Format(time.RFC1123))
	if c.Priority != before {
		msg += fmt.Sprintf(" Priority raised from %s to %s.", before, c.Priority)
	}
	return msg
}
