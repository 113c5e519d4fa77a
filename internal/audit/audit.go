package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"institute-service/internal/auth"
	"institute-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

// ActorType represents the type of entity performing an action
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

const (
	eventAccessDenied = "access_denied"
	writeTimeout      = 2 * time.Second
	defaultQueryLimit = 100
)

// MaxQueryLimit caps one page of Query results.
const MaxQueryLimit = 500

// Event represents an audit event
type Event struct {
	ID           uuid.UUID      `json:"id"`
	EventType    string         `json:"event_type"`
	ActorType    ActorType      `json:"actor_type"`
	ActorID      string         `json:"actor_id,omitempty"`
	ActorRole    string         `json:"actor_role,omitempty"`
	Resource     string         `json:"resource"`
	Action       string         `json:"action"`
	Status       Status         `json:"status"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DB is the subset of pgxpool.Pool the logger needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Logger handles audit logging
type Logger struct {
	db DB
}

func NewLogger(db DB) *Logger {
	return &Logger{db: db}
}

// Log records an audit event
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, actor_type, actor_id, actor_role, resource, action,
			status, ip_address, user_agent, request_id, metadata, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := l.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.ActorType,
		event.ActorID,
		event.ActorRole,
		event.Resource,
		event.Action,
		event.Status,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		metadataJSON,
		event.ErrorMessage,
		event.CreatedAt,
	)

	return err
}

// LogDenial records a gate rejection for an authenticated caller.
func (l *Logger) LogDenial(c echo.Context, identity *auth.Identity, resource, action string) {
	event := newEvent(c, eventAccessDenied, resource, action, StatusDenied)
	setActor(event, identity)
	l.logAsync(c, event)
}

// LogMutation records a change to roles, grants or links made through the
// admin surface. A non-nil cause marks the event as failed.
func (l *Logger) LogMutation(c echo.Context, resource, action string, metadata map[string]any, cause error) {
	status := StatusSuccess
	if cause != nil {
		status = StatusFailure
	}

	event := newEvent(c, action+"_"+resource, resource, action, status)
	event.Metadata = metadata
	if cause != nil {
		event.ErrorMessage = logger.SanitizeLogMessage(cause.Error())
	}

	identity, err := auth.GetIdentity(c)
	if err == nil {
		setActor(event, identity)
	}
	l.logAsync(c, event)
}

func newEvent(c echo.Context, eventType, resource, action string, status Status) *Event {
	return &Event{
		EventType: eventType,
		ActorType: ActorTypeSystem,
		Resource:  resource,
		Action:    action,
		Status:    status,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}
}

func setActor(event *Event, identity *auth.Identity) {
	if identity == nil {
		return
	}
	event.ActorType = ActorTypeUser
	event.ActorID = identity.Subject
	event.ActorRole = identity.RoleName
}

// logAsync writes the event without blocking the request.
func (l *Logger) logAsync(c echo.Context, event *Event) {
	out := c.Logger().Output()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.Log(ctx, event); err != nil {
			fmt.Fprintf(out, "audit log failed: %v\n", err)
		}
	}()
}

// QueryFilter narrows Query results. Nil fields are ignored.
type QueryFilter struct {
	ActorID   *string
	Resource  *string
	Action    *string
	Status    *Status
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// Query retrieves audit events, newest first.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]*Event, error) {
	query, args := buildQuery(filter)

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		var metadataJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.ActorType,
			&event.ActorID,
			&event.ActorRole,
			&event.Resource,
			&event.Action,
			&event.Status,
			&event.IPAddress,
			&event.UserAgent,
			&event.RequestID,
			&metadataJSON,
			&event.ErrorMessage,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, err
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

func buildQuery(filter QueryFilter) (string, []any) {
	query := `
		SELECT id, event_type, actor_type, COALESCE(actor_id, ''), actor_role, resource, action,
		       status, ip_address, user_agent, request_id, metadata, error_message, created_at
		FROM audit_events
		WHERE 1=1
	`
	args := []any{}

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.ActorID != nil {
		add(" AND actor_id = $%d", *filter.ActorID)
	}
	if filter.Resource != nil {
		add(" AND resource = $%d", *filter.Resource)
	}
	if filter.Action != nil {
		add(" AND action = $%d", *filter.Action)
	}
	if filter.Status != nil {
		add(" AND status = $%d", *filter.Status)
	}
	if filter.StartTime != nil {
		add(" AND created_at >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		add(" AND created_at <= $%d", *filter.EndTime)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	add(" LIMIT $%d", limit)

	if filter.Offset > 0 {
		add(" OFFSET $%d", filter.Offset)
	}

	return query, args
}
