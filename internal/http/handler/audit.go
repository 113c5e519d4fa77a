package handler

import (
	"context"
	"institute-service/internal/audit"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	queryActorID  = "actor_id"
	queryResource = "resource"
	queryAction   = "action"
	queryStatus   = "status"
	querySince    = "since"
	queryUntil    = "until"
	queryLimit    = "limit"
	queryOffset   = "offset"
)

type AuditReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]*audit.Event, error)
}

type AuditEventsResponse struct {
	Events []*audit.Event `json:"events"`
}

// AuditHandler exposes the audit trail written by the gate and the admin
// handlers. It is read-only.
type AuditHandler struct {
	events AuditReader
}

func NewAuditHandler(events AuditReader) *AuditHandler {
	return &AuditHandler{events: events}
}

func (h *AuditHandler) Register(g *echo.Group) {
	g.GET("/list", h.List)
}

func (h *AuditHandler) List(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	events, err := h.events.Query(c.Request().Context(), filter)
	if err != nil {
		return respondFailure(c, err, msgListAuditFail)
	}

	return c.JSON(http.StatusOK, AuditEventsResponse{Events: emptyIfNil(events)})
}

func parseAuditFilter(c echo.Context) (audit.QueryFilter, error) {
	var filter audit.QueryFilter

	if v := c.QueryParam(queryActorID); v != "" {
		filter.ActorID = &v
	}
	if v := c.QueryParam(queryResource); v != "" {
		filter.Resource = &v
	}
	if v := c.QueryParam(queryAction); v != "" {
		filter.Action = &v
	}
	if v := c.QueryParam(queryStatus); v != "" {
		status := audit.Status(v)
		switch status {
		case audit.StatusSuccess, audit.StatusFailure, audit.StatusDenied:
			filter.Status = &status
		default:
			return filter, echo.NewHTTPError(http.StatusBadRequest, msgInvalidAuditStatus)
		}
	}

	for key, dst := range map[string]**time.Time{querySince: &filter.StartTime, queryUntil: &filter.EndTime} {
		v := c.QueryParam(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, msgInvalidAuditTime)
		}
		*dst = &t
	}

	if v := c.QueryParam(queryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > audit.MaxQueryLimit {
			return filter, echo.NewHTTPError(http.StatusBadRequest, msgInvalidAuditLimit)
		}
		filter.Limit = n
	}
	if v := c.QueryParam(queryOffset); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, msgInvalidAuditOffset)
		}
		filter.Offset = n
	}

	return filter, nil
}
