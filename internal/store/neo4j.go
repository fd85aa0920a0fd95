package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

const (
	neo4jDialTimeout  = 10 * time.Second
	neo4jReadTimeout  = 10 * time.Second
	neo4jWriteTimeout = 30 * time.Second
)

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// Neo4jStore implements Store on a Neo4j database. Complaints, departments and
// notifications are nodes; a complaint is linked to its department with ROUTED_TO.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(uri, username, password, database string, logger *slog.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating Neo4j driver for %s: %w", uri, err)
	}

	dialCtx, dialCancel := context.WithTimeout(context.Background(), neo4jDialTimeout)
	defer dialCancel()
	if err := driver.VerifyConnectivity(dialCtx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("verifying Neo4j connection at %s: %w", uri, err)
	}

	logger.Info("connected to Neo4j", "uri", uri, "database", database)

	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	rctx, cancel := withTimeout(ctx, neo4jReadTimeout)
	defer cancel()
	return neo4j.ExecuteQuery(rctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	wctx, cancel := withTimeout(ctx, neo4jWriteTimeout)
	defer cancel()
	return neo4j.ExecuteQuery(wctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithWritersRouting(),
	)
}

// EnsureSchema creates uniqueness constraints and lookup indexes.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT complaint_id IF NOT EXISTS FOR (c:Complaint) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT department_id IF NOT EXISTS FOR (d:Department) REQUIRE d.id IS UNIQUE",
		"CREATE CONSTRAINT notification_id IF NOT EXISTS FOR (n:Notification) REQUIRE n.id IS UNIQUE",
		"CREATE INDEX complaint_status IF NOT EXISTS FOR (c:Complaint) ON (c.status)",
		"CREATE INDEX complaint_created IF NOT EXISTS FOR (c:Complaint) ON (c.created_at)",
		"CREATE INDEX notification_user IF NOT EXISTS FOR (n:Notification) ON (n.user_id)",
	}
	for _, stmt := range statements {
		if _, err := s.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensuring schema (%s): %w", stmt, err)
		}
	}
	s.logger.Info("neo4j schema ready")
	return nil
}

const upsertComplaintQuery = `
MERGE (c:Complaint {id: $id})
SET c += $props
WITH c
OPTIONAL MATCH (c)-[r:ROUTED_TO]->(:Department)
DELETE r
WITH DISTINCT c
OPTIONAL MATCH (d:Department {id: $department_id})
FOREACH (_ IN CASE WHEN d IS NULL THEN [] ELSE [1] END | MERGE (c)-[:ROUTED_TO]->(d))`

func upsertComplaintParams(c models.Complaint) (map[string]any, error) {
	props, err := complaintToProps(c)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":            c.ID,
		"props":         props,
		"department_id": c.DepartmentID,
	}, nil
}

// UpsertComplaint merges the complaint node and re-links it to its department.
func (s *Neo4jStore) UpsertComplaint(ctx context.Context, c models.Complaint) error {
	params, err := upsertComplaintParams(c)
	if err != nil {
		return fmt.Errorf("upsert complaint %s: %w", c.ID, err)
	}
	if _, err := s.write(ctx, upsertComplaintQuery, params); err != nil {
		return fmt.Errorf("upsert complaint %s: %w", c.ID, err)
	}
	return nil
}

// UpdateComplaint reads, modifies and writes a complaint in one transaction.
// Bumping the revision on read takes the node's write lock, so concurrent
// updates of the same complaint are applied one after the other.
func (s *Neo4jStore) UpdateComplaint(ctx context.Context, id string, fn func(*models.Complaint) error) (*models.Complaint, error) {
	wctx, cancel := withTimeout(ctx, neo4jWriteTimeout)
	defer cancel()

	session := s.driver.NewSession(wctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(context.Background()) }()

	var fnErr error
	out, err := session.ExecuteWrite(wctx, func(tx neo4j.ManagedTransaction) (any, error) {
		fnErr = nil
		res, err := tx.Run(wctx, `
MATCH (c:Complaint {id: $id})
SET c.revision = coalesce(c.revision, 0) + 1
RETURN c`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(wctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			fnErr = fmt.Errorf("complaint %s: %w", id, ErrNotFound)
			return nil, fnErr
		}
		node, _, err := neo4j.GetRecordValue[neo4j.Node](records[0], "c")
		if err != nil {
			return nil, err
		}
		c, err := complaintFromProps(node.Props)
		if err != nil {
			return nil, fmt.Errorf("decoding: %w", err)
		}
		if err := fn(&c); err != nil {
			fnErr = err
			return nil, err
		}
		c.ID = id
		params, err := upsertComplaintParams(c)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Run(wctx, upsertComplaintQuery, params); err != nil {
			return nil, err
		}
		return &c, nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, fmt.Errorf("update complaint %s: %w", id, err)
	}
	return out.(*models.Complaint), nil
}

// GetComplaint retrieves a complaint by ID.
func (s *Neo4jStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	res, err := s.read(ctx, "MATCH (c:Complaint {id: $id}) RETURN c", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get complaint %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("complaint %s: %w", id, ErrNotFound)
	}
	node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Records[0], "c")
	if err != nil {
		return nil, fmt.Errorf("get complaint %s: %w", id, err)
	}
	c, err := complaintFromProps(node.Props)
	if err != nil {
		return nil, fmt.Errorf("decoding complaint %s: %w", id, err)
	}
	return &c, nil
}

// DeleteComplaint removes a complaint node and its relationships.
func (s *Neo4jStore) DeleteComplaint(ctx context.Context, id string) error {
	res, err := s.write(ctx, "MATCH (c:Complaint {id: $id}) DETACH DELETE c RETURN 1 AS deleted", map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete complaint %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("complaint %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListComplaints returns matching complaints ordered by creation time, then ID.
func (s *Neo4jStore) ListComplaints(ctx context.Context, filters *ComplaintFilters, limit int, cursor string) ([]models.Complaint, string, error) {
	const query = `
MATCH (c:Complaint)
WHERE ($cursor_id IS NULL OR
        c.created_at > $cursor_at OR (c.created_at = $cursor_at AND c.id > $cursor_id))
  AND ($status IS NULL OR c.status = $status)
  AND ($category IS NULL OR c.category = $category)
  AND ($department_id IS NULL OR c.department_id = $department_id)
  AND ($user_id IS NULL OR c.user_id = $user_id)
  AND (NOT $open_only OR c.status IN $open_statuses)
  AND ($since IS NULL OR c.created_at >= $since)
RETURN c
ORDER BY c.created_at, c.id
LIMIT $limit`

	params := map[string]any{
		"cursor_id":     nil,
		"cursor_at":     nil,
		"status":        nil,
		"category":      nil,
		"department_id": nil,
		"user_id":       nil,
		"open_only":     false,
		"open_statuses": []string{string(models.StatusPending), string(models.StatusInProgress)},
		"since":         nil,
		"limit":         int64(1 << 31),
	}
	if cursor != "" {
		pos, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		params["cursor_id"] = pos.id
		params["cursor_at"] = pos.createdAt
	}
	if limit > 0 {
		// Fetch one extra row to learn whether another page exists.
		params["limit"] = int64(limit + 1)
	}
	if filters != nil {
		if filters.Status != nil {
			params["status"] = string(*filters.Status)
		}
		if filters.Category != nil {
			params["category"] = string(*filters.Category)
		}
		if filters.DepartmentID != nil {
			params["department_id"] = *filters.DepartmentID
		}
		if filters.UserID != nil {
			params["user_id"] = *filters.UserID
		}
		params["open_only"] = filters.OpenOnly
		if !filters.Since.IsZero() {
			params["since"] = filters.Since
		}
	}

	res, err := s.read(ctx, query, params)
	if err != nil {
		return nil, "", fmt.Errorf("list complaints: %w", err)
	}

	out := make([]models.Complaint, 0, len(res.Records))
	for _, rec := range res.Records {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "c")
		if err != nil {
			return nil, "", fmt.Errorf("list complaints: %w", err)
		}
		c, err := complaintFromProps(node.Props)
		if err != nil {
			return nil, "", fmt.Errorf("list complaints: decoding: %w", err)
		}
		out = append(out, c)
	}

	var next string
	if limit > 0 && len(out) > limit {
		out = out[:limit]
		next = encodeCursor(&out[len(out)-1])
	}
	return out, next, nil
}

// UpsertDepartment merges a department node.
func (s *Neo4jStore) UpsertDepartment(ctx context.Context, d models.Department) error {
	_, err := s.write(ctx, "MERGE (d:Department {id: $id}) SET d += $props", map[string]any{
		"id":    d.ID,
		"props": departmentToProps(d),
	})
	if err != nil {
		return fmt.Errorf("upsert department %s: %w", d.ID, err)
	}
	return nil
}

// GetDepartment retrieves a department by ID.
func (s *Neo4jStore) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	res, err := s.read(ctx, "MATCH (d:Department {id: $id}) RETURN d", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get department %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Records[0], "d")
	if err != nil {
		return nil, fmt.Errorf("get department %s: %w", id, err)
	}
	d := departmentFromProps(node.Props)
	return &d, nil
}

// ListDepartments returns departments in creation order.
func (s *Neo4jStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	res, err := s.read(ctx, "MATCH (d:Department) RETURN d ORDER BY d.created_at, d.id", nil)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	out := make([]models.Department, 0, len(res.Records))
	for _, rec := range res.Records {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "d")
		if err != nil {
			return nil, fmt.Errorf("list departments: %w", err)
		}
		out = append(out, departmentFromProps(node.Props))
	}
	return out, nil
}

// DeleteDepartment removes a department node and its ROUTED_TO links.
func (s *Neo4jStore) DeleteDepartment(ctx context.Context, id string) error {
	res, err := s.write(ctx, "MATCH (d:Department {id: $id}) DETACH DELETE d RETURN 1 AS deleted", map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendNotification creates a notification node.
func (s *Neo4jStore) AppendNotification(ctx context.Context, n models.Notification) error {
	_, err := s.write(ctx, "CREATE (n:Notification) SET n = $props", map[string]any{
		"props": notificationToProps(n),
	})
	if err != nil {
		return fmt.Errorf("append notification for %s: %w", n.UserID, err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Neo4jStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	const query = `
MATCH (n:Notification {user_id: $user_id})
WHERE NOT $unread_only OR n.read = false
RETURN n
ORDER BY n.created_at DESC, n.id DESC
LIMIT $limit`
	lim := int64(1 << 31)
	if limit > 0 {
		lim = int64(limit)
	}
	res, err := s.read(ctx, query, map[string]any{
		"user_id":     userID,
		"unread_only": unreadOnly,
		"limit":       lim,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	out := make([]models.Notification, 0, len(res.Records))
	for _, rec := range res.Records {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "n")
		if err != nil {
			return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
		}
		out = append(out, notificationFromProps(node.Props))
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (s *Neo4jStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.write(ctx,
		"MATCH (n:Notification {id: $id, user_id: $user_id}) SET n.read = true RETURN n.id AS id",
		map[string]any{"id": id, "user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// Stats aggregates complaint counts server-side and folds them into maps.
func (s *Neo4jStore) Stats(ctx context.Context, now time.Time) (*models.ComplaintStats, error) {
	const query = `
MATCH (c:Complaint)
RETURN c.category AS category, c.status AS status, c.priority AS priority,
       coalesce(c.department_id, '') AS department,
       count(*) AS n,
       sum(CASE WHEN c.status IN $open_statuses AND c.sla_deadline IS NOT NULL AND c.sla_deadline < $now
           THEN 1 ELSE 0 END) AS breached`
	res, err := s.read(ctx, query, map[string]any{
		"open_statuses": []string{string(models.StatusPending), string(models.StatusInProgress)},
		"now":           now,
	})
	if err != nil {
		return nil, fmt.Errorf("complaint stats: %w", err)
	}

	stats := newStats()
	for _, rec := range res.Records {
		m := rec.AsMap()
		n := propInt(m, "n")
		stats.Total += n
		stats.ByCategory[propString(m, "category")] += n
		stats.ByStatus[propString(m, "status")] += n
		stats.ByPriority[propString(m, "priority")] += n
		stats.ByDepartment[propString(m, "department")] += n
		stats.SLABreachedOpen += propInt(m, "breached")
	}
	return stats, nil
}

// Close releases the driver's connection pool.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// --- property mapping ---

func complaintToProps(c models.Complaint) (map[string]any, error) {
	history, err := json.Marshal(c.History)
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	return map[string]any{
		"id":                   c.ID,
		"user_id":              c.UserID,
		"user_name":            c.UserName,
		"user_email":           c.UserEmail,
		"title":                c.Title,
		"description":          c.Description,
		"category":             string(c.Category),
		"priority":             string(c.Priority),
		"status":               string(c.Status),
		"department_id":        c.DepartmentID,
		"keywords":             nonNil(c.Keywords),
		"confidence":           c.Confidence,
		"ai_category":          string(c.AICategory),
		"ai_priority":          string(c.AIPriority),
		"sentiment":            string(c.Sentiment),
		"image_urls":           nonNil(c.ImageURLs),
		"sla_hours":            int64(c.SLAHours),
		"sla_deadline":         timeOrNil(c.SLADeadline),
		"sla_warning_notified": c.SLAWarningNotified,
		"sla_breach_notified":  c.SLABreachNotified,
		"history":              string(history),
		"created_at":           timeOrNil(c.CreatedAt),
		"updated_at":           timeOrNil(c.UpdatedAt),
		"resolved_at":          timeOrNil(c.ResolvedAt),
	}, nil
}

func complaintFromProps(p map[string]any) (models.Complaint, error) {
	c := models.Complaint{
		ID:                 propString(p, "id"),
		UserID:             propString(p, "user_id"),
		UserName:           propString(p, "user_name"),
		UserEmail:          propString(p, "user_email"),
		Title:              propString(p, "title"),
		Description:        propString(p, "description"),
		Category:           models.Category(propString(p, "category")),
		Priority:           models.Priority(propString(p, "priority")),
		Status:             models.ComplaintStatus(propString(p, "status")),
		DepartmentID:       propString(p, "department_id"),
		Keywords:           propStrings(p, "keywords"),
		Confidence:         propFloat(p, "confidence"),
		AICategory:         models.Category(propString(p, "ai_category")),
		AIPriority:         models.Priority(propString(p, "ai_priority")),
		Sentiment:          models.Sentiment(propString(p, "sentiment")),
		ImageURLs:          propStrings(p, "image_urls"),
		SLAHours:           int(propInt(p, "sla_hours")),
		SLADeadline:        propTime(p, "sla_deadline"),
		SLAWarningNotified: propBool(p, "sla_warning_notified"),
		SLABreachNotified:  propBool(p, "sla_breach_notified"),
		CreatedAt:          propTime(p, "created_at"),
		UpdatedAt:          propTime(p, "updated_at"),
		ResolvedAt:         propTime(p, "resolved_at"),
	}
	if h := propString(p, "history"); h != "" && h != "null" {
		if err := json.Unmarshal([]byte(h), &c.History); err != nil {
			return c, fmt.Errorf("decoding history: %w", err)
		}
	}
	return c, nil
}

func departmentToProps(d models.Department) map[string]any {
	cats := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		cats = append(cats, string(c))
	}
	return map[string]any{
		"id":          d.ID,
		"name":        d.Name,
		"description": d.Description,
		"categories":  cats,
		"sla_hours":   int64(d.SLAHours),
		"staff_ids":   nonNil(d.StaffIDs),
		"created_at":  timeOrNil(d.CreatedAt),
		"updated_at":  timeOrNil(d.UpdatedAt),
	}
}

func departmentFromProps(p map[string]any) models.Department {
	d := models.Department{
		ID:          propString(p, "id"),
		Name:        propString(p, "name"),
		Description: propString(p, "description"),
		SLAHours:    int(propInt(p, "sla_hours")),
		StaffIDs:    propStrings(p, "staff_ids"),
		CreatedAt:   propTime(p, "created_at"),
		UpdatedAt:   propTime(p, "updated_at"),
	}
	for _, c := range propStrings(p, "categories") {
		d.Categories = append(d.Categories, models.Category(c))
	}
	return d
}

func notificationToProps(n models.Notification) map[string]any {
	return map[string]any{
		"id":           n.ID,
		"user_id":      n.UserID,
		"complaint_id": n.ComplaintID,
		"kind":         string(n.Kind),
		"message":      n.Message,
		"read":         n.Read,
		"created_at":   timeOrNil(n.CreatedAt),
	}
}

func notificationFromProps(p map[string]any) models.Notification {
	return models.Notification{
		ID:          propString(p, "id"),
		UserID:      propString(p, "user_id"),
		ComplaintID: propString(p, "complaint_id"),
		Kind:        models.NotificationKind(propString(p, "kind")),
		Message:     propString(p, "message"),
		Read:        propBool(p, "read"),
		CreatedAt:   propTime(p, "created_at"),
	}
}

// timeOrNil stores zero times as absent properties (SET += with nil removes them).
func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func propString(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func propStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func propInt(p map[string]any, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func propFloat(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func propBool(p map[string]any, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func propTime(p map[string]any, key string) time.Time {
	switch v := p[key].(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return v.Time().UTC()
	default:
		return time.Time{}
	}
}
