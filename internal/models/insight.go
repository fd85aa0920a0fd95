package models

import "time"

// Trend is a share-of-volume band. It is derived from a single snapshot,
// not from comparing periods.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// PatternSample is the minimal complaint view needed for pattern analysis.
type PatternSample struct {
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// PatternInsight summarizes one category across a set of historical complaints.
type PatternInsight struct {
	Category       Category `json:"category"`
	Frequency      int      `json:"frequency"` // percent of all complaints in the set
	Trend          Trend    `json:"trend"`
	PeakDays       []string `json:"peak_days"`
	Recommendation string   `json:"recommendation"`
}

// DepartmentCompliance is SLA performance for one department.
type DepartmentCompliance struct {
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	Total        int     `json:"total"`
	Open         int     `json:"open"`
	Breached     int     `json:"breached"`
	Compliance   float64 `json:"compliance"` // percent of complaints not breached
}
