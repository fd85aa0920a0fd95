// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on the /debug/vars endpoint of the API server.
package metrics

import "expvar"

// Operation counters.
var (
	ClassifyTotal      = expvar.NewInt("complaints_classified_total")
	SubmitTotal        = expvar.NewInt("complaints_submitted_total")
	StatusChangeTotal  = expvar.NewInt("complaints_status_changed_total")
	ReassignTotal      = expvar.NewInt("complaints_reassigned_total")
	SLAWarningTotal    = expvar.NewInt("sla_warning_total")
	SLABreachedTotal   = expvar.NewInt("sla_breached_total")
	NotificationsTotal = expvar.NewInt("notifications_appended_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
