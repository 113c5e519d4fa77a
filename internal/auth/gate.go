package auth

import (
	"errors"
	"fmt"
	"institute-service/internal/repository"
	apperrors "institute-service/pkg/errors"
	"institute-service/pkg/logger"
	"institute-service/pkg/metrics"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type TokenVerifier interface {
	Verify(token string) (*JWTClaims, error)
}

type RequestClassifier interface {
	Classify(path string) (resource, action string)
}

type Enforcer interface {
	Enforce(subject, resource, action string) (bool, error)
}

// DenialAuditor records rejected authorization attempts.
type DenialAuditor interface {
	LogDenial(c echo.Context, identity *Identity, resource, action string)
}

type GateConfig struct {
	Verifier   TokenVerifier
	Roles      repository.RoleResolver
	Classifier RequestClassifier
	Enforcer   Enforcer
	// DenyStatus is returned for authenticated callers without a grant.
	// Zero means 401.
	DenyStatus int
	Metrics    *metrics.Metrics
	Auditor    DenialAuditor
}

// Gate authorizes every request under a protected group: verify the bearer
// token, re-resolve the role from storage, classify the path, enforce.
type Gate struct {
	cfg GateConfig
}

type outcome int

const (
	outcomeAllowed outcome = iota
	outcomeUnauthenticated
	outcomeDenied
	outcomeError
)

type decision struct {
	outcome  outcome
	identity *Identity
	resource string
	action   string
	err      error
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.DenyStatus == 0 {
		cfg.DenyStatus = http.StatusUnauthorized
	}
	return &Gate{cfg: cfg}
}

func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				g.record(metrics.DecisionUnauthenticated, "", "")
				return respondError(c, http.StatusUnauthorized, msgNotAuthorized)
			}

			d := g.decide(c, token)

			switch d.outcome {
			case outcomeAllowed:
				g.record(metrics.DecisionAllowed, d.resource, d.action)
				SetIdentity(c, d.identity)
				return next(c)

			case outcomeUnauthenticated:
				g.record(metrics.DecisionUnauthenticated, d.resource, d.action)
				return respondError(c, http.StatusUnauthorized, msgNotAuthorized)

			case outcomeDenied:
				g.record(metrics.DecisionDenied, d.resource, d.action)
				c.Logger().Infof("authz: role %q denied %s/%s", d.identity.RoleName, d.resource, d.action)
				if g.cfg.Auditor != nil {
					g.cfg.Auditor.LogDenial(c, d.identity, d.resource, d.action)
				}
				return respondError(c, g.cfg.DenyStatus, msgNotAuthorized)

			default:
				g.record(metrics.DecisionError, d.resource, d.action)
				c.Logger().Errorf("authz: %s", logger.SanitizeLogMessage(d.err.Error()))
				return respondError(c, http.StatusInternalServerError, msgInternalServerError)
			}
		}
	}
}

// decide runs verification through enforcement. A panic in any step becomes
// an error outcome so it never reaches the business handler.
func (g *Gate) decide(c echo.Context, token string) (d decision) {
	defer func() {
		if r := recover(); r != nil {
			d = decision{outcome: outcomeError, resource: d.resource, action: d.action, err: fmt.Errorf(msgGatePanic, r)}
		}
	}()

	claims, err := g.cfg.Verifier.Verify(token)
	if err != nil {
		return decision{outcome: outcomeUnauthenticated, err: err}
	}

	roleID, err := strconv.ParseInt(string(claims.RoleID), 10, 64)
	if err != nil {
		return decision{outcome: outcomeUnauthenticated, err: err}
	}

	role, err := g.cfg.Roles.GetByID(c.Request().Context(), roleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decision{outcome: outcomeUnauthenticated, err: err}
		}
		return decision{outcome: outcomeError, err: err}
	}

	identity := &Identity{
		Subject:  claims.Subject,
		Name:     claims.Name,
		RoleID:   role.ID,
		RoleName: role.Name,
	}

	d.resource, d.action = g.cfg.Classifier.Classify(c.Request().URL.Path)

	allowed, err := g.cfg.Enforcer.Enforce(role.Name, d.resource, d.action)
	if err != nil {
		return decision{outcome: outcomeError, identity: identity, resource: d.resource, action: d.action, err: err}
	}

	d.identity = identity
	if !allowed {
		d.outcome = outcomeDenied
		return d
	}
	d.outcome = outcomeAllowed
	return d
}

func (g *Gate) record(result metrics.Decision, resource, action string) {
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.RecordDecision(result, resource, action)
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}
