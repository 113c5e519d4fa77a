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

type RoleLinkHandler struct {
	roles       RoleStore
	links       RoleLinkManager
	auditLogger MutationAuditor
}

func NewRoleLinkHandler(roles RoleStore, links RoleLinkManager, auditLogger MutationAuditor) *RoleLinkHandler {
	return &RoleLinkHandler{
		roles:       roles,
		links:       links,
		auditLogger: auditorOrNop(auditLogger),
	}
}

func (h *RoleLinkHandler) Register(g *echo.Group) {
	g.POST("/add", h.Link)
	g.DELETE("/delete", h.Unlink)
	g.GET("/list", h.List)
}

func (h *RoleLinkHandler) bindLink(c echo.Context) (policy.Link, error) {
	var req LinkRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return policy.Link{}, err
	}
	req.normalize()

	if err := validator.RoleName(req.Child); err != nil {
		return policy.Link{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validator.RoleName(req.Parent); err != nil {
		return policy.Link{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Child == req.Parent {
		return policy.Link{}, echo.NewHTTPError(http.StatusBadRequest, msgLinkSelf)
	}

	return policy.Link{Child: req.Child, Parent: req.Parent}, nil
}

func linkMetadata(l policy.Link) map[string]any {
	return map[string]any{"child": l.Child, "parent": l.Parent}
}

// Link makes child inherit parent's grants. Both roles must exist and the
// link must not close an inheritance cycle.
func (h *RoleLinkHandler) Link(c echo.Context) error {
	link, err := h.bindLink(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	ctx := c.Request().Context()
	for _, name := range []string{link.Child, link.Parent} {
		if _, err := h.roles.GetByName(ctx, name); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return respondError(c, http.StatusNotFound, msgRoleNotFound)
			}
			return respondFailure(c, err, msgAddLinkFail)
		}
	}

	added, err := h.links.AddRoleLink(link.Child, link.Parent)
	h.auditLogger.LogMutation(c, auditResourceRoleLink, authz.ActionAdd, linkMetadata(link), err)
	if err != nil {
		if errors.Is(err, authz.ErrRoleLinkCycle) {
			return respondError(c, http.StatusConflict, msgLinkCycle)
		}
		return respondFailure(c, err, msgAddLinkFail)
	}

	if !added {
		return c.JSON(http.StatusOK, LinkResponse{Message: msgLinkExists, Link: link})
	}
	return c.JSON(http.StatusCreated, LinkResponse{Message: msgLinkAdded, Changed: true, Link: link})
}

func (h *RoleLinkHandler) Unlink(c echo.Context) error {
	link, err := h.bindLink(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	removed, err := h.links.RemoveRoleLink(link.Child, link.Parent)
	h.auditLogger.LogMutation(c, auditResourceRoleLink, authz.ActionDelete, linkMetadata(link), err)
	if err != nil {
		return respondFailure(c, err, msgRemoveLinkFail)
	}

	msg := msgLinkRemoved
	if !removed {
		msg = msgLinkMissing
	}
	return c.JSON(http.StatusOK, LinkResponse{Message: msg, Changed: removed, Link: link})
}

func (h *RoleLinkHandler) List(c echo.Context) error {
	links, err := h.links.GetRoleLinks()
	if err != nil {
		return respondFailure(c, err, msgListLinksFail)
	}

	roles, err := h.links.GetAllNamedRoles()
	if err != nil {
		return respondFailure(c, err, msgListLinksFail)
	}

	return c.JSON(http.StatusOK, LinksResponse{Links: emptyIfNil(links), Roles: emptyIfNil(roles)})
}
