package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"institute-service/internal/auth"
	"institute-service/internal/authz"
	"institute-service/internal/config"
	"institute-service/internal/domain/policy"
	"institute-service/internal/domain/role"
	"institute-service/internal/repository/memory"
	apperrors "institute-service/pkg/errors"
	"institute-service/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "Xq8vN2mK5pR7tW1yB4cF6hJ9lZ3sD0gA"

type staticRoles []*role.Role

func (s staticRoles) find(match func(*role.Role) bool) (*role.Role, error) {
	for _, r := range s {
		if match(r) {
			return r, nil
		}
	}
	return nil, apperrors.NotFound("role not found")
}

func (s staticRoles) Create(ctx context.Context, input role.CreateRoleInput) (*role.Role, error) {
	return nil, apperrors.Conflict("read-only")
}

func (s staticRoles) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	return s.find(func(r *role.Role) bool { return r.ID == id })
}

func (s staticRoles) GetByName(ctx context.Context, name string) (*role.Role, error) {
	return s.find(func(r *role.Role) bool { return r.Name == name })
}

func (s staticRoles) List(ctx context.Context) ([]*role.Role, error) {
	return s, nil
}

func (s staticRoles) Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error) {
	return nil, apperrors.Conflict("read-only")
}

func (s staticRoles) Delete(ctx context.Context, id int64) error {
	return apperrors.Conflict("read-only")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type serverFixture struct {
	server  *Server
	jwt     *auth.JWTService
	metrics *metrics.Metrics
}

func newServerFixture(t *testing.T, db Pinger) *serverFixture {
	t.Helper()

	engine, err := authz.NewEngine(memory.NewPolicyRepository(
		policy.Grant{Role: "admin", Resource: "permission", Action: "add"}.Rule(),
		policy.Grant{Role: "admin", Resource: "role", Action: "list"}.Rule(),
		policy.Grant{Role: "teacher", Resource: "employee", Action: "view"}.Rule(),
		policy.Link{Child: "admin", Parent: "teacher"}.Rule(),
	), authz.Options{})
	require.NoError(t, err)

	roles := staticRoles{{ID: 1, Name: "admin"}, {ID: 2, Name: "teacher"}}
	cfg := &config.Config{
		Server: config.ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
		Authz:  config.AuthzConfig{APIPrefix: "/api", DenyStatus: http.StatusForbidden},
	}
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	m := metrics.New()

	gate := auth.NewGate(auth.GateConfig{
		Verifier:   jwtService,
		Roles:      roles,
		Classifier: authz.NewClassifier(cfg.Authz.APIPrefix),
		Enforcer:   engine,
		DenyStatus: cfg.Authz.DenyStatus,
		Metrics:    m,
	})

	s := NewServer(&ServerDependencies{
		Config:   cfg,
		DB:       db,
		Roles:    roles,
		Policies: engine,
		Gate:     gate,
		Metrics:  m,
	})

	s.Mount("employee", func(g *echo.Group) {
		g.GET("/view/:id", func(c echo.Context) error {
			identity, err := auth.GetIdentity(c)
			if err != nil {
				return err
			}
			return c.String(http.StatusOK, identity.RoleName+" sees employee "+c.Param("id"))
		})
		g.DELETE("/delete/:id", func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})
	})

	return &serverFixture{server: s, jwt: jwtService, metrics: m}
}

func (f *serverFixture) do(t *testing.T, method, path, roleID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if roleID != "" {
		token, err := f.jwt.Generate("user-1", "Test User", roleID)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthIsUnguarded(t *testing.T) {
	f := newServerFixture(t, fakePinger{})

	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHealthReportsDatabaseFailure(t *testing.T) {
	f := newServerFixture(t, fakePinger{err: errors.New("connection refused")})

	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProfilingRoutesDisabledByDefault(t *testing.T) {
	f := newServerFixture(t, fakePinger{})

	rec := f.do(t, http.MethodGet, "/debug/runtime", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountedModuleIsGated(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/employee/view/12", "2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teacher sees employee 12", rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/employee/delete/12", "2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/employee/view/12", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/employee/view/12", "1", "")
	assert.Equal(t, http.StatusOK, rec.Code, "admin inherits teacher grants")
}

func TestUnknownRouteUnderPrefixFailsClosed(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/payroll/list", "1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesAreGated(t *testing.T) {
	f := newServerFixture(t, nil)
	body := `{"role":"teacher","resource":"notice","action":"view"}`

	rec := f.do(t, http.MethodPost, "/api/permission/add", "2", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/permission/add", "1", body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/role/list", "1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsRouteCountsDecisions(t *testing.T) {
	f := newServerFixture(t, nil)

	f.do(t, http.MethodGet, "/api/employee/view/1", "2", "")
	f.do(t, http.MethodDelete, "/api/employee/delete/1", "2", "")
	f.do(t, http.MethodGet, "/api/employee/view/1", "", "")

	rec := f.do(t, http.MethodGet, "/metrics/requests", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Decisions[metrics.DecisionAllowed])
	assert.Equal(t, int64(1), snap.Decisions[metrics.DecisionDenied])
	assert.Equal(t, int64(1), snap.Decisions[metrics.DecisionUnauthenticated])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{apperrors.NotFound("role not found"), http.StatusNotFound},
		{apperrors.Conflict("dup"), http.StatusConflict},
		{apperrors.Validation("bad"), http.StatusBadRequest},
		{apperrors.Unauthenticated("no token"), http.StatusUnauthorized},
		{apperrors.Forbidden("no"), http.StatusForbidden},
		{echo.NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, _ := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestCustomHTTPErrorHandlerHidesInternalDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	CustomHTTPErrorHandler(apperrors.InternalServer("db exploded", errors.New("password=secret")), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
