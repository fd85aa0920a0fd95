package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/complaint-router/internal/classifier"
	"github.com/ajitpratap0/complaint-router/internal/department"
	"github.com/ajitpratap0/complaint-router/internal/insights"
	"github.com/ajitpratap0/complaint-router/internal/intake"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

const (
	// maxBodyBytes caps request bodies.
	maxBodyBytes = 1 << 20

	defaultPageSize = 50
	maxPageSize     = 500
)

// Server is an HTTP API server that exposes complaint intake, routing and reporting.
type Server struct {
	classifier  *classifier.Classifier
	complaints  *intake.Service
	departments *department.Service
	reporter    *insights.Reporter
	logger      *slog.Logger
	authToken   string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies.
func NewServer(cls *classifier.Classifier, complaints *intake.Service, departments *department.Service, reporter *insights.Reporter, logger *slog.Logger, authToken string) *Server {
	return &Server{
		classifier:  cls,
		complaints:  complaints,
		departments: departments,
		reporter:    reporter,
		logger:      logger,
		authToken:   authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Stateless text analysis.
	mux.HandleFunc("POST /v1/classify", s.auth(s.handleClassify))
	mux.HandleFunc("POST /v1/keywords", s.auth(s.handleKeywords))
	mux.HandleFunc("POST /v1/sentiment", s.auth(s.handleSentiment))

	// Complaints.
	mux.HandleFunc("POST /v1/complaints", s.auth(s.handleSubmit))
	mux.HandleFunc("GET /v1/complaints", s.auth(s.handleListComplaints))
	mux.HandleFunc("GET /v1/complaints/{id}", s.auth(s.handleGetComplaint))
	mux.HandleFunc("POST /v1/complaints/{id}/status", s.auth(s.handleUpdateStatus))
	mux.HandleFunc("POST /v1/complaints/{id}/assign", s.auth(s.handleReassign))

	// Departments.
	mux.HandleFunc("GET /v1/departments", s.auth(s.handleListDepartments))
	mux.HandleFunc("POST /v1/departments", s.auth(s.handleSaveDepartment))
	mux.HandleFunc("DELETE /v1/departments/{id}", s.auth(s.handleDeleteDepartment))

	// Notifications.
	mux.HandleFunc("GET /v1/notifications/{user}", s.auth(s.handleListNotifications))
	mux.HandleFunc("POST /v1/notifications/{user}/{id}/read", s.auth(s.handleMarkRead))

	// Reporting.
	mux.HandleFunc("GET /v1/insights", s.auth(s.handleInsights))
	mux.HandleFunc("GET /v1/stats", s.auth(s.handleStats))
	mux.HandleFunc("GET /debug/vars", s.auth(expvar.Handler().ServeHTTP))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classifyRequest is the body accepted by POST /v1/classify.
type classifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.complaints.Preview(r.Context(), req.Title, req.Description))
}

// textRequest is the body accepted by the keyword and sentiment endpoints.
type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"keywords": s.classifier.ExtractKeywords(req.Text)})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]models.Sentiment{"sentiment": s.classifier.AnalyzeSentiment(req.Text)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req intake.SubmitRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.complaints.Submit(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, "complaint")
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

// listComplaintsResponse is returned by GET /v1/complaints.
type listComplaintsResponse struct {
	Complaints []intake.ComplaintView `json:"complaints"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func (s *Server) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &store.ComplaintFilters{OpenOnly: q.Get("open") == "true"}
	if v := q.Get("status"); v != "" {
		st := models.ComplaintStatus(v)
		if !st.IsValid() {
			s.writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filters.Status = &st
	}
	if v := q.Get("category"); v != "" {
		c := models.Category(v)
		if !c.IsValid() {
			s.writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		filters.Category = &c
	}
	if v := q.Get("department"); v != "" {
		filters.DepartmentID = &v
	}
	if v := q.Get("user"); v != "" {
		filters.UserID = &v
	}
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}

	views, next, err := s.complaints.List(r.Context(), filters, limit, q.Get("cursor"))
	if errors.Is(err, store.ErrInvalidCursor) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to list complaints", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list complaints")
		return
	}
	s.writeJSON(w, http.StatusOK, listComplaintsResponse{Complaints: views, NextCursor: next})
}

func (s *Server) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	view, err := s.complaints.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "complaint")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// statusRequest is the body accepted by POST /v1/complaints/{id}/status.
type statusRequest struct {
	Status models.ComplaintStatus `json:"status"`
	Note   string                 `json:"note"`
	Actor  string                 `json:"actor"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.complaints.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.Note, req.Actor)
	if err != nil {
		s.writeServiceError(w, err, "complaint")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// assignRequest is the body accepted by POST /v1/complaints/{id}/assign.
type assignRequest struct {
	DepartmentID string `json:"department_id"`
	Actor        string `json:"actor"`
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.complaints.Reassign(r.Context(), r.PathValue("id"), req.DepartmentID, req.Actor)
	if err != nil {
		s.writeServiceError(w, err, "complaint")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.departments.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]models.Department{"departments": depts})
}

func (s *Server) handleSaveDepartment(w http.ResponseWriter, r *http.Request) {
	var req models.Department
	if !s.decode(w, r, &req) {
		return
	}
	d, err := s.departments.Save(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, "department")
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := s.departments.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "department")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	notes, err := s.complaints.Notifications(r.Context(), r.PathValue("user"), r.URL.Query().Get("unread") == "true", limit)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]models.Notification{"notifications": notes})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.complaints.MarkRead(r.Context(), r.PathValue("user"), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "notification")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}
	rep, err := s.reporter.Report(r.Context(), since)
	if err != nil {
		s.logger.Error("failed to build insights", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build insights")
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.complaints.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// --- helpers ---

// decode reads a size-limited JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryLimit parses ?limit=, defaulting to defaultPageSize.
func (s *Server) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultPageSize, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxPageSize {
		s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return 0, false
	}
	return n, true
}

// writeServiceError maps service errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, intake.ErrValidation),
		errors.Is(err, intake.ErrUnknownDepartment),
		errors.Is(err, department.ErrInvalid):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrInvalidTransition),
		errors.Is(err, department.ErrInUse):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "resource", what, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process "+what)
	}
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
