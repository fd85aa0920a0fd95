package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

// ErrNotFound is returned when the requested complaint, department or notification does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCursor is returned by ListComplaints for a malformed cursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// Store defines persistence for complaints, departments and the per-user notification log.
type Store interface {
	// EnsureSchema creates constraints and indexes if they don't exist.
	EnsureSchema(ctx context.Context) error

	// UpsertComplaint inserts or replaces a complaint.
	UpsertComplaint(ctx context.Context, c models.Complaint) error

	// UpdateComplaint applies fn to the current stored complaint and saves the
	// result, with no other write landing in between. When fn returns an error
	// nothing is saved and that error is returned as is. fn may run more than
	// once and must not have side effects.
	UpdateComplaint(ctx context.Context, id string, fn func(*models.Complaint) error) (*models.Complaint, error)

	// GetComplaint retrieves a single complaint by ID.
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)

	// DeleteComplaint removes a complaint by ID.
	DeleteComplaint(ctx context.Context, id string) error

	// ListComplaints returns complaints matching filters ordered by creation time, then ID.
	// The cursor parameter is opaque; pass "" for the first page. A cursor stays
	// valid when the complaint it was taken from is deleted.
	// The returned cursor is empty when no more results remain.
	ListComplaints(ctx context.Context, filters *ComplaintFilters, limit int, cursor string) ([]models.Complaint, string, error)

	// UpsertDepartment inserts or replaces a department.
	UpsertDepartment(ctx context.Context, d models.Department) error

	// GetDepartment retrieves a single department by ID.
	GetDepartment(ctx context.Context, id string) (*models.Department, error)

	// ListDepartments returns all departments in creation order.
	ListDepartments(ctx context.Context) ([]models.Department, error)

	// DeleteDepartment removes a department by ID.
	DeleteDepartment(ctx context.Context, id string) error

	// AppendNotification adds an entry to a user's notification log.
	AppendNotification(ctx context.Context, n models.Notification) error

	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)

	// MarkNotificationRead flags one of a user's notifications as read.
	MarkNotificationRead(ctx context.Context, userID, id string) error

	// Stats returns complaint counts; SLA breaches are evaluated at now.
	Stats(ctx context.Context, now time.Time) (*models.ComplaintStats, error)

	// Close cleans up resources.
	Close() error
}

// ComplaintFilters narrows ListComplaints. Nil pointers and zero values match everything.
type ComplaintFilters struct {
	Status       *models.ComplaintStatus `json:"status,omitempty"`
	Category     *models.Category        `json:"category,omitempty"`
	DepartmentID *string                 `json:"department_id,omitempty"`
	UserID       *string                 `json:"user_id,omitempty"`
	OpenOnly     bool                    `json:"open_only,omitempty"`
	Since        time.Time               `json:"since,omitzero"`
}

// Matches reports whether c passes the filters.
func (f *ComplaintFilters) Matches(c *models.Complaint) bool {
	if f == nil {
		return true
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	if f.DepartmentID != nil && c.DepartmentID != *f.DepartmentID {
		return false
	}
	if f.UserID != nil && c.UserID != *f.UserID {
		return false
	}
	if f.OpenOnly && !c.Status.IsOpen() {
		return false
	}
	if !f.Since.IsZero() && c.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// ListAll pages through ListComplaints until the cursor is exhausted.
func ListAll(ctx context.Context, st Store, filters *ComplaintFilters) ([]models.Complaint, error) {
	const pageSize = 500
	var (
		all    []models.Complaint
		cursor string
	)
	for {
		page, next, err := st.ListComplaints(ctx, filters, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// pagePosition is the sort key of the last complaint on a page.
type pagePosition struct {
	createdAt time.Time
	id        string
}

func encodeCursor(c *models.Complaint) string {
	return strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID
}

func decodeCursor(cursor string) (pagePosition, error) {
	nanos, id, ok := strings.Cut(cursor, ":")
	if !ok || id == "" {
		return pagePosition{}, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return pagePosition{}, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return pagePosition{createdAt: time.Unix(0, n).UTC(), id: id}, nil
}

// after reports whether c sorts strictly after the position.
func (p pagePosition) after(c *models.Complaint) bool {
	if !c.CreatedAt.Equal(p.createdAt) {
		return c.CreatedAt.After(p.createdAt)
	}
	return c.ID > p.id
}

func newStats() *models.ComplaintStats {
	return &models.ComplaintStats{
		ByCategory:   make(map[string]int64),
		ByStatus:     make(map[string]int64),
		ByPriority:   make(map[string]int64),
		ByDepartment: make(map[string]int64),
	}
}
