package models

import (
	"time"
)

// Category is the routing category assigned to a complaint.
type Category string

const (
	CategoryWater          Category = "water"
	CategoryElectrical     Category = "electrical"
	CategoryInternet       Category = "internet"
	CategoryInfrastructure Category = "infrastructure"
	CategorySanitation     Category = "sanitation"
	CategorySecurity       Category = "security"
	CategoryMaintenance    Category = "maintenance"
	CategoryOther          Category = "other"
)

// ValidCategories is the set of all categories in declaration order.
// The order decides scoring ties, so it must not be rearranged.
var ValidCategories = []Category{
	CategoryWater,
	CategoryElectrical,
	CategoryInternet,
	CategoryInfrastructure,
	CategorySanitation,
	CategorySecurity,
	CategoryMaintenance,
	CategoryOther,
}

// ScoredCategories returns every category that carries keywords, i.e. all but "other".
func ScoredCategories() []Category {
	return ValidCategories[:len(ValidCategories)-1]
}

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Priority is the handling priority of a complaint.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ValidPriorities lists priorities from lowest to highest.
var ValidPriorities = []Priority{
	PriorityLow,
	PriorityNormal,
	PriorityHigh,
	PriorityUrgent,
}

// IsValid returns true if the priority is recognized.
func (p Priority) IsValid() bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Raise returns the next higher priority. Urgent stays urgent.
func (p Priority) Raise() Priority {
	for i, v := range ValidPriorities {
		if p == v && i+1 < len(ValidPriorities) {
			return ValidPriorities[i+1]
		}
	}
	if p.IsValid() {
		return p
	}
	return PriorityNormal
}

// ComplaintStatus tracks a complaint through its department queue.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusRejected   ComplaintStatus = "rejected"
)

// ValidStatuses is the set of all complaint statuses.
var ValidStatuses = []ComplaintStatus{
	StatusPending,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
}

// IsValid returns true if the status is recognized.
func (s ComplaintStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsOpen reports whether the SLA clock is still running for this status.
func (s ComplaintStatus) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// IsTerminal reports whether no further transitions are allowed.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// SLAStatus is the deadline state of a complaint at a given instant.
type SLAStatus string

const (
	SLAOk       SLAStatus = "ok"
	SLAWarning  SLAStatus = "warning"
	SLABreached SLAStatus = "breached"
)

// Sentiment is a coarse three-bucket tone estimate. Informational only.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// Department is a routing target owned by the department-management layer.
type Department struct {
	ID          string     `json:"id" validate:"required"`
	Name        string     `json:"name" validate:"required,max=100"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Categories  []Category `json:"categories" validate:"required,min=1,dive,oneof=water electrical internet infrastructure sanitation security maintenance"`
	SLAHours    int        `json:"sla_hours" validate:"min=1,max=720"`
	StaffIDs    []string   `json:"staff_ids,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Handles reports whether the department accepts complaints of the given category.
func (d Department) Handles(c Category) bool {
	for _, dc := range d.Categories {
		if dc == c {
			return true
		}
	}
	return false
}

// ClassificationResult is the classifier's verdict for one complaint text.
type ClassificationResult struct {
	Category              Category  `json:"category"`
	Confidence            float64   `json:"confidence"`
	Priority              Priority  `json:"priority"`
	Keywords              []string  `json:"keywords"`
	SuggestedDepartmentID string    `json:"suggested_department_id,omitempty"`
	Sentiment             Sentiment `json:"sentiment"`
}

// StatusChange is one entry of a complaint's status history.
type StatusChange struct {
	From  ComplaintStatus `json:"from,omitempty"`
	To    ComplaintStatus `json:"to"`
	Note  string          `json:"note,omitempty"`
	Actor string          `json:"actor,omitempty"`
	At    time.Time       `json:"at"`
}

// Complaint is a submitted complaint as persisted by the store.
type Complaint struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	UserName           string          `json:"user_name,omitempty"`
	UserEmail          string          `json:"user_email,omitempty"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           Category        `json:"category"`
	Priority           Priority        `json:"priority"`
	Status             ComplaintStatus `json:"status"`
	DepartmentID       string          `json:"department_id,omitempty"`
	Keywords           []string        `json:"keywords"`
	Confidence         float64         `json:"confidence"`
	AICategory         Category        `json:"ai_category"`  // classifier suggestion, kept for audit
	AIPriority         Priority        `json:"ai_priority"`  // classifier suggestion, kept for audit
	Sentiment          Sentiment       `json:"sentiment"`
	ImageURLs          []string        `json:"image_urls,omitempty"`
	SLAHours           int             `json:"sla_hours"`
	SLADeadline        time.Time       `json:"sla_deadline"`
	SLAWarningNotified bool            `json:"sla_warning_notified"`
	SLABreachNotified  bool            `json:"sla_breach_notified"`
	History            []StatusChange  `json:"history,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	ResolvedAt         time.Time       `json:"resolved_at,omitzero"`
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (c Complaint) Clone() Complaint {
	out := c
	out.Keywords = append([]string(nil), c.Keywords...)
	out.ImageURLs = append([]string(nil), c.ImageURLs...)
	out.History = append([]StatusChange(nil), c.History...)
	return out
}

// NotificationKind identifies why a notification was appended.
type NotificationKind string

const (
	NotifyReceived      NotificationKind = "received"
	NotifyStatusChanged NotificationKind = "status_changed"
	NotifySLAWarning    NotificationKind = "sla_warning"
	NotifySLABreached   NotificationKind = "sla_breached"
	NotifyReassigned    NotificationKind = "reassigned"
)

// Notification is one entry in a user's append-only message log.
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ComplaintID string           `json:"complaint_id,omitempty"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ComplaintStats holds summary counts over all stored complaints.
type ComplaintStats struct {
	Total           int64            `json:"total"`
	ByCategory      map[string]int64 `json:"by_category"`
	ByStatus        map[string]int64 `json:"by_status"`
	ByPriority      map[string]int64 `json:"by_priority"`
	ByDepartment    map[string]int64 `json:"by_department"`
	SLABreachedOpen int64            `json:"sla_breached_open"`
}
