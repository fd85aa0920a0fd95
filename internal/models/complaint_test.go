package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []Category{
		CategoryWater, CategoryElectrical, CategoryInternet, CategoryInfrastructure,
		CategorySanitation, CategorySecurity, CategoryMaintenance,
	}, ScoredCategories())
	assert.True(t, CategoryOther.IsValid())
	assert.False(t, Category("plumbing").IsValid())
}

func TestPriority_Raise(t *testing.T) {
	tests := []struct {
		in   Priority
		want Priority
	}{
		{PriorityLow, PriorityNormal},
		{PriorityNormal, PriorityHigh},
		{PriorityHigh, PriorityUrgent},
		{PriorityUrgent, PriorityUrgent},
		{Priority(""), PriorityNormal},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Raise())
		})
	}
}

func TestComplaintStatus_OpenAndTerminal(t *testing.T) {
	assert.True(t, StatusPending.IsOpen())
	assert.True(t, StatusInProgress.IsOpen())
	assert.False(t, StatusResolved.IsOpen())
	assert.True(t, StatusResolved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestComplaint_CloneIsDeep(t *testing.T) {
	c := Complaint{Keywords: []string{"water"}, History: []StatusChange{{To: StatusPending}}}
	cp := c.Clone()
	cp.Keywords[0] = "changed"
	cp.History[0].To = StatusResolved
	assert.Equal(t, "water", c.Keywords[0])
	assert.Equal(t, StatusPending, c.History[0].To)
}

func TestDepartment_Handles(t *testing.T) {
	d := Department{Categories: []Category{CategoryWater, CategorySanitation}}
	assert.True(t, d.Handles(CategorySanitation))
	assert.False(t, d.Handles(CategoryOther))
}

func TestComplaint_ResolvedAtOmittedUntilResolved(t *testing.T) {
	c := Complaint{ID: "c1", Status: StatusPending}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "resolved_at")

	c.Status = StatusResolved
	c.ResolvedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	data, err = json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resolved_at":"2026-03-02T09:00:00Z"`)
}
