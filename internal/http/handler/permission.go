package handler

import (
	"errors"
	"institute-service/internal/authz"
	"institute-service/internal/domain/policy"
	apperrors "institute-service/pkg/errors"
	"institute-service/pkg/validator"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PermissionHandler struct {
	roles       RoleStore
	policies    PermissionManager
	auditLogger MutationAuditor
}

func NewPermissionHandler(roles RoleStore, policies PermissionManager, auditLogger MutationAuditor) *PermissionHandler {
	return &PermissionHandler{
		roles:       roles,
		policies:    policies,
		auditLogger: auditorOrNop(auditLogger),
	}
}

func (h *PermissionHandler) Register(g *echo.Group) {
	g.POST("/add", h.Grant)
	g.DELETE("/delete", h.Revoke)
	g.GET("/list", h.List)
	g.GET("/view/:role", h.ForRole)
	g.POST("/reload", h.Reload)
}

func (h *PermissionHandler) bindGrant(c echo.Context) (policy.Grant, error) {
	var req GrantRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return policy.Grant{}, err
	}
	req.normalize()

	if err := validator.RoleName(req.Role); err != nil {
		return policy.Grant{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validator.Resource(req.Resource); err != nil {
		return policy.Grant{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validator.Action(req.Action); err != nil {
		return policy.Grant{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return policy.Grant{Role: req.Role, Resource: req.Resource, Action: req.Action}, nil
}

func grantMetadata(g policy.Grant) map[string]any {
	return map[string]any{"role": g.Role, "resource": g.Resource, "action": g.Action}
}

// Grant adds a (role, resource, action) tuple. The role must exist.
func (h *PermissionHandler) Grant(c echo.Context) error {
	grant, err := h.bindGrant(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	if _, err := h.roles.GetByName(c.Request().Context(), grant.Role); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		}
		return respondFailure(c, err, msgGrantFail)
	}

	added, err := h.policies.AddPolicy(grant.Role, grant.Resource, grant.Action)
	h.auditLogger.LogMutation(c, auditResourcePermission, authz.ActionAdd, grantMetadata(grant), err)
	if err != nil {
		return respondFailure(c, err, msgGrantFail)
	}

	if !added {
		return c.JSON(http.StatusOK, GrantResponse{Message: msgPermissionExists, Grant: grant})
	}
	return c.JSON(http.StatusCreated, GrantResponse{Message: msgPermissionGranted, Changed: true, Grant: grant})
}

// Revoke removes a tuple. Revoking a grant that does not exist is not an error.
func (h *PermissionHandler) Revoke(c echo.Context) error {
	grant, err := h.bindGrant(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	removed, err := h.policies.RemovePolicy(grant.Role, grant.Resource, grant.Action)
	h.auditLogger.LogMutation(c, auditResourcePermission, authz.ActionDelete, grantMetadata(grant), err)
	if err != nil {
		return respondFailure(c, err, msgRevokeFail)
	}

	msg := msgPermissionRevoked
	if !removed {
		msg = msgPermissionMissing
	}
	return c.JSON(http.StatusOK, GrantResponse{Message: msg, Changed: removed, Grant: grant})
}

func (h *PermissionHandler) List(c echo.Context) error {
	grants, err := h.policies.GetAllPolicies()
	if err != nil {
		return respondFailure(c, err, msgListPermissionsFail)
	}

	return c.JSON(http.StatusOK, emptyIfNil(grants))
}

// ForRole lists direct and inherited grants for the role in the path.
func (h *PermissionHandler) ForRole(c echo.Context) error {
	name := c.Param(paramRole)
	if err := validator.RoleName(name); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	grants, err := h.policies.PermissionsForRole(name)
	if err != nil {
		return respondFailure(c, err, msgListPermissionsFail)
	}

	return c.JSON(http.StatusOK, emptyIfNil(grants))
}

func (h *PermissionHandler) Reload(c echo.Context) error {
	err := h.policies.Reload()
	h.auditLogger.LogMutation(c, auditResourcePermission, authz.ActionReload, nil, err)
	if err != nil {
		return respondFailure(c, err, msgReloadFail)
	}

	return respondMessage(c, http.StatusOK, msgPoliciesReloaded)
}
