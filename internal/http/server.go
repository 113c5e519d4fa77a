package http

import (
	"context"
	"institute-service/internal/auth"
	"institute-service/internal/config"
	"institute-service/internal/http/handler"
	"institute-service/internal/http/middleware"
	"institute-service/pkg/metrics"
	"institute-service/pkg/profiling"
	stdhttp "net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	statusDegraded   = "degraded"
	requestBodyLimit = "1M"
)

// Module names of the administrative surface. They double as the resource
// column of the grants that protect them.
const (
	ModuleRole       = "role"
	ModulePermission = "permission"
	ModuleRoleLink   = "role-link"
	ModuleAudit      = "audit"
)

// Pinger reports storage health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyAdmin is the decision engine surface the admin handlers drive.
type PolicyAdmin interface {
	handler.PermissionManager
	handler.RoleLinkManager
	handler.RolePolicyRewriter
}

type ServerDependencies struct {
	Config      *config.Config
	DB          Pinger
	Roles       handler.RoleStore
	Policies    PolicyAdmin
	Gate        *auth.Gate
	Metrics     *metrics.Metrics
	AuditLogger handler.MutationAuditor
	AuditEvents handler.AuditReader
}

// Server is the echo application. Every route mounted under the API prefix
// passes the authorization gate first.
type Server struct {
	echo *echo.Echo
	api  *echo.Group
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
		deps.Metrics.RegisterRoute(e)
	}
	e.Use(middleware.NewGlobalRateLimiter().Middleware())

	s := &Server{echo: e, deps: deps}
	e.GET("/health", s.healthCheck)
	if deps.Config.Server.EnableProfiling {
		profiling.RegisterRoutes(e)
	}

	s.api = e.Group(deps.Config.Authz.APIPrefix, deps.Gate.Middleware(), middleware.NewCallerRateLimiter().Middleware())

	s.Mount(ModuleRole, handler.NewRoleHandler(deps.Roles, deps.Policies, deps.AuditLogger).Register)
	s.Mount(ModulePermission, handler.NewPermissionHandler(deps.Roles, deps.Policies, deps.AuditLogger).Register)
	s.Mount(ModuleRoleLink, handler.NewRoleLinkHandler(deps.Roles, deps.Policies, deps.AuditLogger).Register)
	if deps.AuditEvents != nil {
		s.Mount(ModuleAudit, handler.NewAuditHandler(deps.AuditEvents).Register)
	}

	return s
}

// Mount registers a module router at <prefix>/<module> behind the gate. The
// module name becomes the resource for every route it registers.
func (s *Server) Mount(module string, register func(g *echo.Group)) {
	register(s.api.Group("/" + strings.Trim(module, "/")))
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(c.Request().Context()); err != nil {
			c.Logger().Errorf("health: database ping failed: %v", err)
			return c.JSON(stdhttp.StatusServiceUnavailable, map[string]string{
				jsonKeyStatus: statusDegraded,
			})
		}
	}

	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
