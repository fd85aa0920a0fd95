package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

func TestComplaintProps_ZeroTimesAreOmitted(t *testing.T) {
	props, err := complaintToProps(models.Complaint{ID: "c1"})
	require.NoError(t, err)
	assert.Nil(t, props["resolved_at"])
	assert.Nil(t, props["sla_deadline"])
	assert.Equal(t, []string{}, props["keywords"])
}

func TestComplaintFromProps_DriverShapes(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	props := map[string]any{
		"id":           "c1",
		"category":     "water",
		"status":       "pending",
		"keywords":     []any{"water", "no water", 7},
		"sla_hours":    int64(24),
		"confidence":   0.83,
		"sla_deadline": created.Add(24 * time.Hour),
		"created_at":   created,
		"history":      `[{"to":"pending","at":"2026-03-02T03:30:00Z"}]`,
	}

	c, err := complaintFromProps(props)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryWater, c.Category)
	assert.Equal(t, []string{"water", "no water"}, c.Keywords)
	assert.Equal(t, 24, c.SLAHours)
	assert.Equal(t, time.UTC, c.CreatedAt.Location())
	assert.True(t, c.CreatedAt.Equal(created))
	require.Len(t, c.History, 1)
	assert.Equal(t, models.StatusPending, c.History[0].To)
	assert.True(t, c.ResolvedAt.IsZero())
}

func TestComplaintFromProps_BadHistory(t *testing.T) {
	_, err := complaintFromProps(map[string]any{"id": "c1", "history": "{"})
	assert.Error(t, err)
}

func TestDepartmentProps(t *testing.T) {
	d := models.Department{
		ID:         "d1",
		Name:       "Plumbing",
		Categories: []models.Category{models.CategoryWater, models.CategorySanitation},
		SLAHours:   24,
	}
	props := departmentToProps(d)
	assert.Equal(t, []string{"water", "sanitation"}, props["categories"])

	// The driver hands lists back as []any.
	props["categories"] = []any{"water", "sanitation"}
	got := departmentFromProps(props)
	assert.Equal(t, d.Categories, got.Categories)
	assert.Equal(t, 24, got.SLAHours)
}
