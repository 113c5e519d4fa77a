package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return c.NoContent(http.StatusUnauthorized) })

	for _, path := range []string{"/ok", "/ok", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Equal(t, int64(2), snap.EndpointCounts["GET /ok"])
	assert.Equal(t, int64(1), snap.StatusCodes[http.StatusUnauthorized])
	assert.Equal(t, int64(0), snap.ActiveRequests)
}

func TestRecordDecision(t *testing.T) {
	m := New()

	m.RecordDecision(DecisionAllowed, "employee", "view")
	m.RecordDecision(DecisionDenied, "employee", "delete")
	m.RecordDecision(DecisionDenied, "employee", "delete")
	m.RecordDecision(DecisionUnauthenticated, "", "")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Decisions[DecisionAllowed])
	assert.Equal(t, int64(2), snap.Decisions[DecisionDenied])
	assert.Equal(t, int64(1), snap.Decisions[DecisionUnauthenticated])
	assert.Equal(t, map[string]int64{"employee/delete": 2}, snap.ResourceDenials)
}

func TestRegisterRoute(t *testing.T) {
	m := New()
	e := echo.New()
	m.RegisterRoute(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/requests", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decisions"`)
}
