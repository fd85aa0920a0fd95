// Package department manages routing targets: which categories a department
// handles, its SLA hours and its staff.
package department

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

var (
	// ErrInvalid wraps department validation failures.
	ErrInvalid = errors.New("invalid department")

	// ErrInUse is returned when deleting a department that still has open complaints.
	ErrInUse = errors.New("department has open complaints")
)

// Service validates and persists departments.
type Service struct {
	store    store.Store
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a department service backed by st.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Save creates or updates a department. A missing ID is generated; CreatedAt
// is preserved across updates.
func (s *Service) Save(ctx context.Context, d models.Department) (*models.Department, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := s.validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	d.Categories = dedupeCategories(d.Categories)

	now := s.now()
	d.UpdatedAt = now
	existing, err := s.store.GetDepartment(ctx, d.ID)
	switch {
	case err == nil:
		d.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		d.CreatedAt = now
	default:
		return nil, fmt.Errorf("getting department %s: %w", d.ID, err)
	}

	if err := s.store.UpsertDepartment(ctx, d); err != nil {
		return nil, fmt.Errorf("saving department %s: %w", d.ID, err)
	}
	s.logger.Info("department saved", "id", d.ID, "name", d.Name, "categories", d.Categories, "sla_hours", d.SLAHours)
	return &d, nil
}

// Get returns one department.
func (s *Service) Get(ctx context.Context, id string) (*models.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

// List returns all departments in creation order.
func (s *Service) List(ctx context.Context) ([]models.Department, error) {
	return s.store.ListDepartments(ctx)
}

// Delete removes a department unless open complaints are still routed to it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetDepartment(ctx, id); err != nil {
		return err
	}
	open, _, err := s.store.ListComplaints(ctx, &store.ComplaintFilters{DepartmentID: &id, OpenOnly: true}, 1, "")
	if err != nil {
		return fmt.Errorf("checking open complaints: %w", err)
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: %s", ErrInUse, id)
	}
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("department deleted", "id", id)
	return nil
}

func dedupeCategories(in []models.Category) []models.Category {
	seen := make(map[models.Category]struct{}, len(in))
	out := make([]models.Category, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
