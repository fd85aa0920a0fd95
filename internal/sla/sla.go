// Package sla computes complaint deadlines from department SLA hours and
// classifies a deadline as ok, warning or breached at a given instant.
package sla

import (
	"time"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

// WarningWindow is how close to the deadline a complaint turns to warning.
const WarningWindow = 4 * time.Hour

// Deadline returns createdAt plus slaHours hours. Zero or negative hours
// yield a deadline at or before createdAt, i.e. already due.
func Deadline(createdAt time.Time, slaHours int) time.Time {
	return createdAt.Add(time.Duration(slaHours) * time.Hour)
}

// Status classifies deadline at now. Breach is strictly after the deadline;
// warning is strictly less than WarningWindow remaining.
func Status(deadline, now time.Time) models.SLAStatus {
	if now.After(deadline) {
		return models.SLABreached
	}
	if deadline.Sub(now) < WarningWindow {
		return models.SLAWarning
	}
	return models.SLAOk
}

// Remaining is the time left until deadline, negative once overdue.
func Remaining(deadline, now time.Time) time.Duration {
	return deadline.Sub(now)
}

// ComplaintStatus is Status for a stored complaint. The clock stops once the
// complaint leaves the open states, and complaints without a deadline are ok.
func ComplaintStatus(c models.Complaint, now time.Time) models.SLAStatus {
	if !c.Status.IsOpen() || c.SLADeadline.IsZero() {
		return models.SLAOk
	}
	return Status(c.SLADeadline, now)
}
