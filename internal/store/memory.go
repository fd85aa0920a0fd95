package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

// MemoryStore is an in-process implementation of Store for tests and local runs.
// Nothing survives a restart.
type MemoryStore struct {
	mu            sync.RWMutex
	complaints    map[string]models.Complaint
	departments   map[string]models.Department
	deptOrder     []string
	notifications map[string][]models.Notification // by user, append order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints:    make(map[string]models.Complaint),
		departments:   make(map[string]models.Department),
		notifications: make(map[string][]models.Notification),
	}
}

// EnsureSchema is a no-op for the memory store.
func (m *MemoryStore) EnsureSchema(_ context.Context) error {
	return nil
}

// UpsertComplaint stores a deep copy of c.
func (m *MemoryStore) UpsertComplaint(_ context.Context, c models.Complaint) error {
	if c.ID == "" {
		return fmt.Errorf("upsert complaint: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints[c.ID] = c.Clone()
	return nil
}

// UpdateComplaint runs fn on a copy of the stored complaint under the write lock.
func (m *MemoryStore) UpdateComplaint(_ context.Context, id string, fn func(*models.Complaint) error) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint %s: %w", id, ErrNotFound)
	}
	c := stored.Clone()
	if err := fn(&c); err != nil {
		return nil, err
	}
	c.ID = id
	m.complaints[id] = c.Clone()
	return &c, nil
}

// GetComplaint returns a deep copy of the stored complaint.
func (m *MemoryStore) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint %s: %w", id, ErrNotFound)
	}
	cp := c.Clone()
	return &cp, nil
}

// DeleteComplaint removes a complaint by ID.
func (m *MemoryStore) DeleteComplaint(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.complaints[id]; !ok {
		return fmt.Errorf("complaint %s: %w", id, ErrNotFound)
	}
	delete(m.complaints, id)
	return nil
}

// ListComplaints returns matching complaints ordered by creation time, then ID.
func (m *MemoryStore) ListComplaints(_ context.Context, filters *ComplaintFilters, limit int, cursor string) ([]models.Complaint, string, error) {
	var (
		pos       pagePosition
		hasCursor = cursor != ""
	)
	if hasCursor {
		var err error
		if pos, err = decodeCursor(cursor); err != nil {
			return nil, "", err
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []models.Complaint
	for id := range m.complaints {
		c := m.complaints[id]
		if hasCursor && !pos.after(&c) {
			continue
		}
		if filters.Matches(&c) {
			all = append(all, c.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return complaintBefore(&all[i], &all[j]) })

	var next string
	if limit > 0 && len(all) > limit {
		all = all[:limit]
		next = encodeCursor(&all[len(all)-1])
	}
	return all, next, nil
}

func complaintBefore(a, b *models.Complaint) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// UpsertDepartment stores d, keeping its original position when it already exists.
func (m *MemoryStore) UpsertDepartment(_ context.Context, d models.Department) error {
	if d.ID == "" {
		return fmt.Errorf("upsert department: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.departments[d.ID]; !exists {
		m.deptOrder = append(m.deptOrder, d.ID)
	}
	d.Categories = append([]models.Category(nil), d.Categories...)
	d.StaffIDs = append([]string(nil), d.StaffIDs...)
	m.departments[d.ID] = d
	return nil
}

// GetDepartment retrieves a department by ID.
func (m *MemoryStore) GetDepartment(_ context.Context, id string) (*models.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.departments[id]
	if !ok {
		return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	d.Categories = append([]models.Category(nil), d.Categories...)
	d.StaffIDs = append([]string(nil), d.StaffIDs...)
	return &d, nil
}

// ListDepartments returns departments in insertion order.
func (m *MemoryStore) ListDepartments(_ context.Context) ([]models.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Department, 0, len(m.deptOrder))
	for _, id := range m.deptOrder {
		d := m.departments[id]
		d.Categories = append([]models.Category(nil), d.Categories...)
		d.StaffIDs = append([]string(nil), d.StaffIDs...)
		out = append(out, d)
	}
	return out, nil
}

// DeleteDepartment removes a department by ID.
func (m *MemoryStore) DeleteDepartment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.departments[id]; !ok {
		return fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	delete(m.departments, id)
	for i, did := range m.deptOrder {
		if did == id {
			m.deptOrder = append(m.deptOrder[:i], m.deptOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AppendNotification adds n to its user's log.
func (m *MemoryStore) AppendNotification(_ context.Context, n models.Notification) error {
	if n.ID == "" || n.UserID == "" {
		return fmt.Errorf("append notification: id and user_id are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.UserID] = append(m.notifications[n.UserID], n)
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (m *MemoryStore) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.notifications[userID]
	out := make([]models.Notification, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		if unreadOnly && log[i].Read {
			continue
		}
		out = append(out, log[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (m *MemoryStore) MarkNotificationRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.notifications[userID]
	for i := range log {
		if log[i].ID == id {
			log[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// Stats computes complaint counts from the in-memory store.
func (m *MemoryStore) Stats(_ context.Context, now time.Time) (*models.ComplaintStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := newStats()
	for id := range m.complaints {
		c := m.complaints[id]
		stats.Total++
		stats.ByCategory[string(c.Category)]++
		stats.ByStatus[string(c.Status)]++
		stats.ByPriority[string(c.Priority)]++
		stats.ByDepartment[c.DepartmentID]++
		if c.Status.IsOpen() && !c.SLADeadline.IsZero() && now.After(c.SLADeadline) {
			stats.SLABreachedOpen++
		}
	}
	return stats, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
