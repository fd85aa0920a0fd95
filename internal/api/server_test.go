package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/complaint-router/internal/classifier"
	"github.com/ajitpratap0/complaint-router/internal/department"
	"github.com/ajitpratap0/complaint-router/internal/insights"
	"github.com/ajitpratap0/complaint-router/internal/intake"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertDepartment(context.Background(), models.Department{
		ID: "water", Name: "Water Works", Categories: []models.Category{models.CategoryWater}, SLAHours: 24,
	}))
	cls := classifier.NewClassifier(nil, logger)
	srv := NewServer(
		cls,
		intake.NewService(st, cls, 72, logger),
		department.NewService(st, logger),
		insights.NewReporter(st, insights.TemplateNarrator{}, logger),
		logger,
		token,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")

	resp, _ := do(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/v1/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/stats", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/stats", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/debug/vars", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "complaints_classified_total")
}

func TestClassifyKeywordsSentiment(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/classify", "", classifyRequest{
		Title:       "No water in building A",
		Description: "There has been no water supply for 3 days, very urgent issue",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "water", body["category"])
	assert.Equal(t, "urgent", body["priority"])
	assert.Equal(t, "water", body["suggested_department_id"])
	assert.InDelta(t, 1.0, body["confidence"], 1e-9)

	resp, body = do(t, http.MethodPost, ts.URL+"/v1/keywords", "", textRequest{Text: "emergency since yesterday"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"emergency", "since yesterday"}, body["keywords"])

	resp, body = do(t, http.MethodPost, ts.URL+"/v1/sentiment", "", textRequest{Text: "terrible and the worst"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "negative", body["sentiment"])
}

func TestComplaintLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/complaints", "", intake.SubmitRequest{
		UserID:      "u1",
		Title:       "Leaking pipe",
		Description: "The pipe under the sink is leaking",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "water", body["department_id"])
	assert.Equal(t, "ok", body["sla_status"])

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/complaints/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/complaints?category=water&user=u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["complaints"], 1)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/complaints/"+id+"/status", "", statusRequest{Status: models.StatusResolved, Actor: "staff"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/complaints/"+id+"/status", "", statusRequest{Status: models.StatusInProgress})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/complaints/"+id+"/assign", "", assignRequest{DepartmentID: "water"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/notifications/u1?unread=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes, _ := body["notifications"].([]any)
	require.Len(t, notes, 2)
	first, _ := notes[0].(map[string]any)
	noteID, _ := first["id"].(string)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/notifications/u1/"+noteID+"/read", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/notifications/u1/missing/read", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1, body["total"], 1e-9)

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/insights", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1, body["total"], 1e-9)
	assert.NotEmpty(t, body["narrative"])
}

func TestComplaintErrors(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, _ := do(t, http.MethodGet, ts.URL+"/v1/complaints/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/complaints", "", intake.SubmitRequest{
		UserID: "u1", Title: "abc", Description: "The pipe is leaking",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "validation failed")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/complaints", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/complaints?status=closed", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/complaints?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/insights?since=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDepartments(t *testing.T) {
	ts, st := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/departments", "", models.Department{
		Name: "Network", Categories: []models.Category{models.CategoryInternet}, SLAHours: 8,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/departments", "", models.Department{Name: "Bad", SLAHours: 8})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/departments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["departments"], 2)

	require.NoError(t, st.UpsertComplaint(context.Background(), models.Complaint{ID: "c1", DepartmentID: id, Status: models.StatusPending}))
	resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/departments/"+id, "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, st.DeleteComplaint(context.Background(), "c1"))
	resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/departments/"+id, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/departments/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
