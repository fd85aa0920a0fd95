// Package mcp implements the Model Context Protocol server for complaint-router.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/complaint-router/internal/classifier"
	"github.com/ajitpratap0/complaint-router/internal/insights"
	"github.com/ajitpratap0/complaint-router/internal/intake"
	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/internal/sla"
	"github.com/ajitpratap0/complaint-router/internal/store"
)

// Server wraps an MCPServer with complaint-router dependencies.
type Server struct {
	mcp        *mcpserver.MCPServer
	classifier *classifier.Classifier
	complaints *intake.Service
	reporter   *insights.Reporter
	now        func() time.Time
	logger     *slog.Logger
}

// NewServer creates a new MCP server. The text-analysis tools only need the
// classifier. If complaints or reporter are nil, the tools that need storage
// return an error response instead of panicking.
func NewServer(cls *classifier.Classifier, complaints *intake.Service, reporter *insights.Reporter, logger *slog.Logger) *Server {
	s := &Server{
		classifier: cls,
		complaints: complaints,
		reporter:   reporter,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"complaint-router",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildClassifyTool(), s.handleClassify)
	mcpSrv.AddTool(buildKeywordsTool(), s.handleKeywords)
	mcpSrv.AddTool(buildSentimentTool(), s.handleSentiment)
	mcpSrv.AddTool(buildSubmitTool(), s.handleSubmit)
	mcpSrv.AddTool(buildGetTool(), s.handleGet)
	mcpSrv.AddTool(buildUpdateStatusTool(), s.handleUpdateStatus)
	mcpSrv.AddTool(buildSLAStatusTool(), s.handleSLAStatus)
	mcpSrv.AddTool(buildPatternsTool(), s.handlePatterns)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleClassify is the exported handler for the "classify_complaint" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleClassify(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleClassify(ctx, req)
}

// HandleKeywords is the exported handler for the "extract_keywords" tool.
func (s *Server) HandleKeywords(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleKeywords(ctx, req)
}

// HandleSentiment is the exported handler for the "analyze_sentiment" tool.
func (s *Server) HandleSentiment(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSentiment(ctx, req)
}

// HandleSubmit is the exported handler for the "submit_complaint" tool.
func (s *Server) HandleSubmit(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSubmit(ctx, req)
}

// HandleGet is the exported handler for the "get_complaint" tool.
func (s *Server) HandleGet(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGet(ctx, req)
}

// HandleUpdateStatus is the exported handler for the "update_status" tool.
func (s *Server) HandleUpdateStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleUpdateStatus(ctx, req)
}

// HandleSLAStatus is the exported handler for the "sla_status" tool.
func (s *Server) HandleSLAStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSLAStatus(ctx, req)
}

// HandlePatterns is the exported handler for the "analyze_patterns" tool.
func (s *Server) HandlePatterns(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handlePatterns(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// serviceError turns a service error into a tool error result.
func serviceError(op string, err error) *mcpgo.CallToolResult {
	if errors.Is(err, store.ErrNotFound) {
		return mcpgo.NewToolResultErrorf("%s: not found", op)
	}
	return mcpgo.NewToolResultErrorf("%s failed: %s", op, err.Error())
}

// --- tool definitions ---

func buildClassifyTool() mcpgo.Tool {
	return mcpgo.NewTool("classify_complaint",
		mcpgo.WithDescription("Classify complaint text into a category and priority, extract keywords and suggest a department. Nothing is stored."),
		mcpgo.WithString("title",
			mcpgo.Description("Complaint title"),
		),
		mcpgo.WithString("description",
			mcpgo.Description("Complaint description"),
		),
	)
}

func buildKeywordsTool() mcpgo.Tool {
	return mcpgo.NewTool("extract_keywords",
		mcpgo.WithDescription("List up to 10 routing keywords found in text."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("Text to scan"),
		),
	)
}

func buildSentimentTool() mcpgo.Tool {
	return mcpgo.NewTool("analyze_sentiment",
		mcpgo.WithDescription("Estimate the tone of text as negative, neutral or positive."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("Text to analyze"),
		),
	)
}

func buildSubmitTool() mcpgo.Tool {
	return mcpgo.NewTool("submit_complaint",
		mcpgo.WithDescription("Submit a complaint. It is classified, routed to a department and given an SLA deadline."),
		mcpgo.WithString("user_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the submitting user"),
		),
		mcpgo.WithString("title",
			mcpgo.Required(),
			mcpgo.Description("Complaint title (5-200 characters)"),
		),
		mcpgo.WithString("description",
			mcpgo.Required(),
			mcpgo.Description("Complaint description (5-2000 characters)"),
		),
		mcpgo.WithString("category",
			mcpgo.Description("Override category: water, electrical, internet, infrastructure, sanitation, security, maintenance, other"),
		),
		mcpgo.WithString("priority",
			mcpgo.Description("Override priority: low, normal, high, urgent"),
		),
		mcpgo.WithString("department_id",
			mcpgo.Description("Route to this department instead of the suggested one"),
		),
	)
}

func buildGetTool() mcpgo.Tool {
	return mcpgo.NewTool("get_complaint",
		mcpgo.WithDescription("Get a complaint by ID, including its current SLA status."),
		mcpgo.WithString("id",
			mcpgo.Required(),
			mcpgo.Description("Complaint ID"),
		),
	)
}

func buildUpdateStatusTool() mcpgo.Tool {
	return mcpgo.NewTool("update_status",
		mcpgo.WithDescription("Move a complaint to pending, in_progress, resolved or rejected."),
		mcpgo.WithString("id",
			mcpgo.Required(),
			mcpgo.Description("Complaint ID"),
		),
		mcpgo.WithString("status",
			mcpgo.Required(),
			mcpgo.Description("Target status"),
		),
		mcpgo.WithString("note",
			mcpgo.Description("Note shown to the submitter"),
		),
		mcpgo.WithString("actor",
			mcpgo.Description("Who made the change"),
		),
	)
}

func buildSLAStatusTool() mcpgo.Tool {
	return mcpgo.NewTool("sla_status",
		mcpgo.WithDescription("Compute an SLA deadline and status, either for a stored complaint or from created_at and sla_hours."),
		mcpgo.WithString("complaint_id",
			mcpgo.Description("Stored complaint ID; takes precedence over created_at/sla_hours"),
		),
		mcpgo.WithString("created_at",
			mcpgo.Description("Creation time, RFC 3339"),
		),
		mcpgo.WithNumber("sla_hours",
			mcpgo.Description("SLA length in hours; zero or negative means already due"),
		),
	)
}

func buildPatternsTool() mcpgo.Tool {
	return mcpgo.NewTool("analyze_patterns",
		mcpgo.WithDescription("Report per-category frequency, trend, peak weekdays and a recommendation. Uses the given samples, or stored complaints from the last N days."),
		mcpgo.WithString("samples",
			mcpgo.Description(`JSON array of {"category": "...", "created_at": "RFC 3339"} objects`),
		),
		mcpgo.WithNumber("days",
			mcpgo.Description("When samples is empty, analyze stored complaints from the last N days (default: all)"),
		),
	)
}

// --- tool handlers ---

// handleClassify previews classification against stored departments when a
// store is available, and against no departments otherwise.
func (s *Server) handleClassify(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	title := req.GetString("title", "")
	description := req.GetString("description", "")

	var result models.ClassificationResult
	if s.complaints != nil {
		result = s.complaints.Preview(ctx, title, description)
	} else {
		result = s.classifier.Classify(title, description, nil)
	}
	return toolResultJSON(result)
}

func (s *Server) handleKeywords(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text := req.GetString("text", "")
	return toolResultJSON(map[string]any{"keywords": s.classifier.ExtractKeywords(text)})
}

func (s *Server) handleSentiment(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text := req.GetString("text", "")
	return toolResultJSON(map[string]any{"sentiment": s.classifier.AnalyzeSentiment(text)})
}

func (s *Server) handleSubmit(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.complaints == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	view, err := s.complaints.Submit(ctx, intake.SubmitRequest{
		UserID:       req.GetString("user_id", ""),
		Title:        req.GetString("title", ""),
		Description:  req.GetString("description", ""),
		Category:     models.Category(req.GetString("category", "")),
		Priority:     models.Priority(req.GetString("priority", "")),
		DepartmentID: req.GetString("department_id", ""),
	})
	if err != nil {
		return serviceError("submit", err), nil
	}

	s.logger.Info("mcp: complaint submitted", "id", view.ID, "category", view.Category, "department", view.DepartmentID)
	return toolResultJSON(view)
}

func (s *Server) handleGet(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.complaints == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}
	id := req.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return mcpgo.NewToolResultError("id is required and must not be empty"), nil
	}

	view, err := s.complaints.Get(ctx, id)
	if err != nil {
		return serviceError("get", err), nil
	}
	return toolResultJSON(view)
}

func (s *Server) handleUpdateStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.complaints == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}
	id := req.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return mcpgo.NewToolResultError("id is required and must not be empty"), nil
	}
	actor := req.GetString("actor", "mcp")

	view, err := s.complaints.UpdateStatus(ctx, id, models.ComplaintStatus(req.GetString("status", "")), req.GetString("note", ""), actor)
	if err != nil {
		return serviceError("update status", err), nil
	}
	return toolResultJSON(view)
}

// slaResult is returned by the sla_status tool.
type slaResult struct {
	Deadline         time.Time        `json:"deadline"`
	Status           models.SLAStatus `json:"status"`
	RemainingSeconds int64            `json:"remaining_seconds"`
}

func (s *Server) handleSLAStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	now := s.now()

	if id := req.GetString("complaint_id", ""); id != "" {
		if s.complaints == nil {
			return mcpgo.NewToolResultError("store is unavailable"), nil
		}
		view, err := s.complaints.Get(ctx, id)
		if err != nil {
			return serviceError("sla status", err), nil
		}
		return toolResultJSON(slaResult{
			Deadline:         view.SLADeadline,
			Status:           view.SLAStatus,
			RemainingSeconds: view.SLARemainingSeconds,
		})
	}

	createdRaw := req.GetString("created_at", "")
	if createdRaw == "" {
		return mcpgo.NewToolResultError("either complaint_id or created_at and sla_hours are required"), nil
	}
	createdAt, err := time.Parse(time.RFC3339, createdRaw)
	if err != nil {
		return mcpgo.NewToolResultErrorf("invalid created_at %q: must be RFC 3339", createdRaw), nil
	}
	// Zero or negative hours are valid and make the complaint due at creation.
	hours, err := req.RequireInt("sla_hours")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	deadline := sla.Deadline(createdAt, hours)
	return toolResultJSON(slaResult{
		Deadline:         deadline,
		Status:           sla.Status(deadline, now),
		RemainingSeconds: int64(sla.Remaining(deadline, now) / time.Second),
	})
}

func (s *Server) handlePatterns(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if raw := req.GetString("samples", ""); strings.TrimSpace(raw) != "" {
		var samples []models.PatternSample
		if err := json.Unmarshal([]byte(raw), &samples); err != nil {
			return mcpgo.NewToolResultErrorf("invalid samples: %s", err.Error()), nil
		}
		return toolResultJSON(map[string]any{"patterns": insights.AnalyzePatterns(samples)})
	}

	if s.reporter == nil {
		return mcpgo.NewToolResultError("store is unavailable; pass samples instead"), nil
	}
	var since time.Time
	if days := req.GetInt("days", 0); days > 0 {
		since = s.now().AddDate(0, 0, -days)
	}
	rep, err := s.reporter.Report(ctx, since)
	if err != nil {
		return serviceError("analyze patterns", err), nil
	}
	return toolResultJSON(rep)
}
