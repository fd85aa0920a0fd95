package insights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

// unassignedID labels complaints that were never routed to a department.
const unassignedID = "unassigned"

// Report is a pattern and SLA compliance report over a window of complaints.
type Report struct {
	GeneratedAt time.Time                     `json:"generated_at"`
	Since       time.Time                     `json:"since,omitzero"`
	Total       int                           `json:"total"`
	Patterns    []models.PatternInsight       `json:"patterns"`
	Departments []models.DepartmentCompliance `json:"departments"`
	Narrative   string                        `json:"narrative,omitempty"`
}

// Reporter builds Reports from the store.
type Reporter struct {
	store    store.Store
	narrator Narrator
	now      func() time.Time
	logger   *slog.Logger
}

// NewReporter creates a Reporter. narrator may be nil to skip the narrative.
func NewReporter(st store.Store, narrator Narrator, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:    st,
		narrator: narrator,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// WithClock overrides the reporter clock. Used by tests.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	r.now = now
	return r
}

// Report analyzes complaints created at or after since. A zero since covers everything.
func (r *Reporter) Report(ctx context.Context, since time.Time) (*Report, error) {
	var (
		complaints []models.Complaint
		depts      []models.Department
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		complaints, err = store.ListAll(gctx, r.store, &store.ComplaintFilters{Since: since})
		if err != nil {
			return fmt.Errorf("listing complaints: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		depts, err = r.store.ListDepartments(gctx)
		if err != nil {
			return fmt.Errorf("listing departments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := r.now()
	samples := make([]models.PatternSample, 0, len(complaints))
	for i := range complaints {
		samples = append(samples, models.PatternSample{Category: complaints[i].Category, CreatedAt: complaints[i].CreatedAt})
	}

	rep := &Report{
		GeneratedAt: now,
		Since:       since,
		Total:       len(complaints),
		Patterns:    AnalyzePatterns(samples),
		Departments: Compliance(complaints, depts, now),
	}

	if r.narrator != nil {
		text, err := r.narrator.Narrate(ctx, rep)
		if err != nil {
			r.logger.Warn("narrating insights, using template", "error", err)
			text, _ = TemplateNarrator{}.Narrate(ctx, rep)
		}
		rep.Narrative = text
	}
	return rep, nil
}

// Breached reports whether c missed its deadline as of now. Closed complaints
// are judged by when they were closed.
func Breached(c *models.Complaint, now time.Time) bool {
	if c.SLADeadline.IsZero() {
		return false
	}
	switch {
	case c.Status.IsOpen():
		return now.After(c.SLADeadline)
	case c.Status == models.StatusResolved && !c.ResolvedAt.IsZero():
		return c.ResolvedAt.After(c.SLADeadline)
	default:
		return c.SLABreachNotified
	}
}

// Compliance returns SLA performance per department in department order,
// followed by an "unassigned" row when unrouted complaints exist. Departments
// without complaints report 100% compliance.
func Compliance(complaints []models.Complaint, depts []models.Department, now time.Time) []models.DepartmentCompliance {
	rows := make([]models.DepartmentCompliance, 0, len(depts)+1)
	index := make(map[string]int, len(depts)+1)
	for _, d := range depts {
		index[d.ID] = len(rows)
		rows = append(rows, models.DepartmentCompliance{DepartmentID: d.ID, Name: d.Name})
	}

	for i := range complaints {
		c := &complaints[i]
		id := c.DepartmentID
		if id == "" {
			id = unassignedID
		}
		pos, ok := index[id]
		if !ok {
			// Routed to a department that has since been deleted.
			pos = len(rows)
			index[id] = pos
			rows = append(rows, models.DepartmentCompliance{DepartmentID: id, Name: id})
		}
		row := &rows[pos]
		row.Total++
		if c.Status.IsOpen() {
			row.Open++
		}
		if Breached(c, now) {
			row.Breached++
		}
	}

	for i := range rows {
		if rows[i].Total == 0 {
			rows[i].Compliance = 100
			continue
		}
		pct := float64(rows[i].Total-rows[i].Breached) / float64(rows[i].Total) * 100
		rows[i].Compliance = math.Round(pct*10) / 10
	}
	return rows
}
