package handler

import (
	"errors"
	"institute-service/internal/authz"
	"institute-service/internal/domain/role"
	apperrors "institute-service/pkg/errors"
	"institute-service/pkg/validator"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type RoleHandler struct {
	roles       RoleStore
	policies    RolePolicyRewriter
	auditLogger MutationAuditor
}

func NewRoleHandler(roles RoleStore, policies RolePolicyRewriter, auditLogger MutationAuditor) *RoleHandler {
	return &RoleHandler{
		roles:       roles,
		policies:    policies,
		auditLogger: auditorOrNop(auditLogger),
	}
}

// Register mounts the handler on the role module group.
func (h *RoleHandler) Register(g *echo.Group) {
	g.POST("/add", h.CreateRole)
	g.GET("/list", h.ListRoles)
	g.GET("/view/:id", h.GetRole)
	g.PUT("/update/:id", h.UpdateRole)
	g.DELETE("/delete/:id", h.DeleteRole)
}

func (h *RoleHandler) CreateRole(c echo.Context) error {
	var req CreateRoleRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if err := validator.RoleName(req.Name); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}
	if err := validator.Description(req.Description); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	rl, err := h.roles.Create(c.Request().Context(), role.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	h.auditLogger.LogMutation(c, auditResourceRole, authz.ActionAdd, map[string]any{"name": req.Name}, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return respondError(c, http.StatusConflict, msgRoleAlreadyExists)
		}
		return respondFailure(c, err, msgCreateRoleFail)
	}

	return c.JSON(http.StatusCreated, rl)
}

func (h *RoleHandler) ListRoles(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return respondFailure(c, err, msgListRolesFail)
	}

	return c.JSON(http.StatusOK, emptyIfNil(roles))
}

// GetRole returns the role together with its direct and inherited grants.
func (h *RoleHandler) GetRole(c echo.Context) error {
	id, err := parseRoleID(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	rl, err := h.roles.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		}
		return respondFailure(c, err, msgGetRoleFail)
	}

	perms, err := h.policies.PermissionsForRole(rl.Name)
	if err != nil {
		return respondFailure(c, err, msgGetRoleFail)
	}

	return c.JSON(http.StatusOK, RoleResponse{Role: rl, Permissions: emptyIfNil(perms)})
}

// UpdateRole renames or re-describes a role. A rename rewrites every stored
// tuple naming the role; if that fails the row is renamed back.
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	id, err := parseRoleID(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	var req UpdateRoleRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}
	if req.Name == nil && req.Description == nil {
		return respondError(c, http.StatusBadRequest, msgNothingToUpdate)
	}

	input := role.UpdateRoleInput{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validator.RoleName(name); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		input.Name = &name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if err := validator.Description(desc); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		input.Description = &desc
	}

	ctx := c.Request().Context()

	existing, err := h.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		}
		return respondFailure(c, err, msgUpdateRoleFail)
	}

	updated, err := h.roles.Update(ctx, id, input)
	if err != nil {
		h.auditLogger.LogMutation(c, auditResourceRole, authz.ActionUpdate, map[string]any{"id": id}, err)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		case errors.Is(err, apperrors.ErrConflict):
			return respondError(c, http.StatusConflict, msgRoleAlreadyExists)
		}
		return respondFailure(c, err, msgUpdateRoleFail)
	}

	if updated.Name != existing.Name {
		if err := h.policies.RenameRole(ctx, existing.Name, updated.Name); err != nil {
			oldName := existing.Name
			if _, revertErr := h.roles.Update(ctx, id, role.UpdateRoleInput{Name: &oldName}); revertErr != nil {
				c.Logger().Errorf("Failed to revert role %d to %q after policy rename failure: %v", id, oldName, revertErr)
			}
			h.auditLogger.LogMutation(c, auditResourceRole, authz.ActionUpdate, map[string]any{"id": id, "from": existing.Name, "to": updated.Name}, err)
			return respondFailure(c, err, msgUpdateRoleFail)
		}
	}

	h.auditLogger.LogMutation(c, auditResourceRole, authz.ActionUpdate, map[string]any{"id": id, "from": existing.Name, "to": updated.Name}, nil)
	return c.JSON(http.StatusOK, updated)
}

// DeleteRole drops the role's grants and links before removing the row. When
// the row delete fails the dropped rules are put back.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	id, err := parseRoleID(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	ctx := c.Request().Context()

	rl, err := h.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		}
		return respondFailure(c, err, msgDeleteRoleFail)
	}

	removed, err := h.policies.RemoveRole(ctx, rl.Name)
	if err == nil {
		err = h.roles.Delete(ctx, id)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			if restoreErr := h.policies.RestoreRules(ctx, removed); restoreErr != nil {
				c.Logger().Errorf("delete role %q: restoring %d policies failed: %v", rl.Name, len(removed), restoreErr)
			}
		}
	}
	h.auditLogger.LogMutation(c, auditResourceRole, authz.ActionDelete, map[string]any{"id": id, "name": rl.Name}, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgRoleNotFound)
		}
		return respondFailure(c, err, msgDeleteRoleFail)
	}

	return c.NoContent(http.StatusNoContent)
}
