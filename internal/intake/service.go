// Package intake turns submitted complaint text into routed, SLA-stamped
// complaints and drives their status transitions.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ajitpratap0/complaint-router/internal/metrics"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/notify"
	"github.com/ajitpratap0/complaint-router/internal/sla"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

var (
	// ErrValidation wraps request validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned for a status change the workflow does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownDepartment is returned when an explicit department ID does not exist.
	ErrUnknownDepartment = errors.New("unknown department")
)

// transitions lists the allowed target statuses per source status.
var transitions = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.StatusPending:    {models.StatusInProgress, models.StatusResolved, models.StatusRejected},
	models.StatusInProgress: {models.StatusPending, models.StatusResolved, models.StatusRejected},
}

// CanTransition reports whether a complaint may move from one status to another.
func CanTransition(from, to models.ComplaintStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Classifier is the subset of the keyword classifier the service needs.
type Classifier interface {
	Classify(title, description string, departments []models.Department) models.ClassificationResult
}

// SubmitRequest is a new complaint as entered by a user. Category and
// Priority are the user-confirmed values and override the classifier.
type SubmitRequest struct {
	UserID       string          `json:"user_id" validate:"required"`
	UserName     string          `json:"user_name,omitempty" validate:"max=100"`
	UserEmail    string          `json:"user_email,omitempty" validate:"omitempty,email"`
	Title        string          `json:"title" validate:"required,min=5,max=200"`
	Description  string          `json:"description" validate:"required,min=5,max=2000"`
	Category     models.Category `json:"category,omitempty" validate:"omitempty,oneof=water electrical internet infrastructure sanitation security maintenance other"`
	Priority     models.Priority `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	DepartmentID string          `json:"department_id,omitempty"`
	ImageURLs    []string        `json:"image_urls,omitempty" validate:"max=10,dive,url"`
}

// ComplaintView is a stored complaint decorated with its SLA state at read time.
type ComplaintView struct {
	models.Complaint
	SLAStatus           models.SLAStatus `json:"sla_status"`
	SLARemainingSeconds int64            `json:"sla_remaining_seconds"`
}

// Service coordinates classification, routing, SLA stamping and notifications.
type Service struct {
	store           store.Store
	classifier      Classifier
	notifier        *notify.Notifier
	validate        *validator.Validate
	defaultSLAHours int
	now             func() time.Time
	logger          *slog.Logger
}

// NewService creates an intake service. defaultSLAHours applies to complaints
// that end up without a department.
func NewService(st store.Store, cls Classifier, defaultSLAHours int, logger *slog.Logger) *Service {
	return &Service{
		store:           st,
		classifier:      cls,
		notifier:        notify.NewNotifier(st, logger),
		validate:        validator.New(),
		defaultSLAHours: defaultSLAHours,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          logger,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Preview classifies text against the current department list without storing anything.
func (s *Service) Preview(ctx context.Context, title, description string) models.ClassificationResult {
	depts, err := s.store.ListDepartments(ctx)
	if err != nil {
		s.logger.Warn("listing departments for preview", "error", err)
		depts = nil
	}
	metrics.Inc(metrics.ClassifyTotal)
	return s.classifier.Classify(title, description, depts)
}

// Submit validates, classifies, routes and stores a new complaint.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*ComplaintView, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	depts, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	result := s.classifier.Classify(req.Title, req.Description, depts)
	metrics.Inc(metrics.ClassifyTotal)

	category := result.Category
	if req.Category != "" {
		category = req.Category
	}
	priority := result.Priority
	if req.Priority != "" {
		priority = req.Priority
	}

	dept, err := s.resolveDepartment(depts, req.DepartmentID, category)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := models.Complaint{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    priority,
		Status:      models.StatusPending,
		Keywords:    result.Keywords,
		Confidence:  result.Confidence,
		AICategory:  result.Category,
		AIPriority:  result.Priority,
		Sentiment:   result.Sentiment,
		ImageURLs:   req.ImageURLs,
		SLAHours:    s.defaultSLAHours,
		History:     []models.StatusChange{{To: models.StatusPending, Actor: req.UserID, At: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dept != nil {
		c.DepartmentID = dept.ID
		c.SLAHours = dept.SLAHours
	}
	c.SLADeadline = sla.Deadline(c.CreatedAt, c.SLAHours)

	if err := s.store.UpsertComplaint(ctx, c); err != nil {
		return nil, fmt.Errorf("storing complaint: %w", err)
	}
	metrics.Inc(metrics.SubmitTotal)

	s.logger.Info("complaint submitted",
		"id", c.ID,
		"category", c.Category,
		"priority", c.Priority,
		"department", c.DepartmentID,
		"sla_deadline", c.SLADeadline,
	)
	s.notifier.Send(ctx, []string{c.UserID}, c.ID, models.NotifyReceived,
		fmt.Sprintf("Your complaint %q was received and is due by %s.", c.Title, c.SLADeadline.Format(time.RFC1123)))

	return s.view(c), nil
}

// resolveDepartment picks the explicit department when given, otherwise the
// first department handling category.
func (s *Service) resolveDepartment(depts []models.Department, explicit string, category models.Category) (*models.Department, error) {
	if explicit != "" {
		for i := range depts {
			if depts[i].ID == explicit {
				return &depts[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, explicit)
	}
	for i := range depts {
		if depts[i].Handles(category) {
			return &depts[i], nil
		}
	}
	return nil, nil
}

// UpdateStatus moves a complaint to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id string, to models.ComplaintStatus, note, actor string) (*ComplaintView, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	now := s.now()
	c, err := s.store.UpdateComplaint(ctx, id, func(c *models.Complaint) error {
		if !CanTransition(c.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
		}
		c.History = append(c.History, models.StatusChange{From: c.Status, To: to, Note: note, Actor: actor, At: now})
		c.Status = to
		c.UpdatedAt = now
		if to == models.StatusResolved {
			c.ResolvedAt = now
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating complaint %s: %w", id, err)
	}
	metrics.Inc(metrics.StatusChangeTotal)

	s.logger.Info("complaint status changed", "id", id, "status", to, "actor", actor)
	msg := fmt.Sprintf("Your complaint %q is now %s.", c.Title, strings.ReplaceAll(string(to), "_", " "))
	if note != "" {
		msg += " Note: " + note
	}
	s.notifier.Send(ctx, []string{c.UserID}, c.ID, models.NotifyStatusChanged, msg)

	return s.view(*c), nil
}

// Reassign routes an open complaint to another department. The deadline is
// recomputed from the original creation time.
func (s *Service) Reassign(ctx context.Context, id, departmentID, actor string) (*ComplaintView, error) {
	if departmentID == "" {
		return nil, fmt.Errorf("%w: department_id is required", ErrValidation)
	}
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Status.IsOpen() {
		return nil, fmt.Errorf("%w: cannot reassign %s complaint", ErrInvalidTransition, c.Status)
	}
	dept, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, departmentID)
		}
		return nil, fmt.Errorf("getting department: %w", err)
	}

	now := s.now()
	c, err = s.store.UpdateComplaint(ctx, id, func(c *models.Complaint) error {
		if !c.Status.IsOpen() {
			return fmt.Errorf("%w: cannot reassign %s complaint", ErrInvalidTransition, c.Status)
		}
		c.DepartmentID = dept.ID
		c.SLAHours = dept.SLAHours
		c.SLADeadline = sla.Deadline(c.CreatedAt, dept.SLAHours)
		c.SLAWarningNotified = false
		c.SLABreachNotified = false
		c.UpdatedAt = now
		c.History = append(c.History, models.StatusChange{
			From: c.Status, To: c.Status, Actor: actor, At: now,
			Note: "reassigned to " + dept.Name,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating complaint %s: %w", id, err)
	}
	metrics.Inc(metrics.ReassignTotal)

	s.logger.Info("complaint reassigned", "id", id, "department", dept.ID, "sla_deadline", c.SLADeadline)
	s.notifier.Send(ctx, []string{c.UserID}, c.ID, models.NotifyReassigned,
		fmt.Sprintf("Your complaint %q was assigned to %s and is due by %s.", c.Title, dept.Name, c.SLADeadline.Format(time.RFC1123)))

	return s.view(*c), nil
}

// Get returns one complaint with its current SLA state.
func (s *Service) Get(ctx context.Context, id string) (*ComplaintView, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(*c), nil
}

// List returns a page of complaints with their current SLA state.
func (s *Service) List(ctx context.Context, filters *store.ComplaintFilters, limit int, cursor string) ([]ComplaintView, string, error) {
	page, next, err := s.store.ListComplaints(ctx, filters, limit, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("listing complaints: %w", err)
	}
	out := make([]ComplaintView, 0, len(page))
	for i := range page {
		out = append(out, *s.view(page[i]))
	}
	return out, next, nil
}

// Notifications returns a user's notification log, newest first.
func (s *Service) Notifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit)
}

// MarkRead flags one of a user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

// Stats returns complaint counts with breaches evaluated at the service clock.
func (s *Service) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	return s.store.Stats(ctx, s.now())
}

func (s *Service) view(c models.Complaint) *ComplaintView {
	now := s.now()
	v := &ComplaintView{Complaint: c, SLAStatus: sla.ComplaintStatus(c, now)}
	if c.Status.IsOpen() && !c.SLADeadline.IsZero() {
		v.SLARemainingSeconds = int64(sla.Remaining(c.SLADeadline, now) / time.Second)
	}
	return v
}
