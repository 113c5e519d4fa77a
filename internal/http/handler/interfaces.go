package handler

import (
	"context"
	"institute-service/internal/domain/policy"
	"institute-service/internal/domain/role"

	"github.com/labstack/echo/v4"
)

// Consumer-side interfaces defined by handlers

type RoleStore interface {
	Create(ctx context.Context, input role.CreateRoleInput) (*role.Role, error)
	GetByID(ctx context.Context, id int64) (*role.Role, error)
	GetByName(ctx context.Context, name string) (*role.Role, error)
	List(ctx context.Context) ([]*role.Role, error)
	Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error)
	Delete(ctx context.Context, id int64) error
}

type PermissionManager interface {
	AddPolicy(role, resource, action string) (bool, error)
	RemovePolicy(role, resource, action string) (bool, error)
	GetAllPolicies() ([]policy.Grant, error)
	PermissionsForRole(role string) ([]policy.Grant, error)
	Reload() error
}

type RoleLinkManager interface {
	AddRoleLink(child, parent string) (bool, error)
	RemoveRoleLink(child, parent string) (bool, error)
	GetRoleLinks() ([]policy.Link, error)
	GetAllNamedRoles() ([]string, error)
}

// RolePolicyRewriter keeps stored tuples consistent with role renames and
// deletions.
type RolePolicyRewriter interface {
	PermissionsForRole(role string) ([]policy.Grant, error)
	RenameRole(ctx context.Context, oldName, newName string) error
	RemoveRole(ctx context.Context, role string) ([]policy.Rule, error)
	RestoreRules(ctx context.Context, rules []policy.Rule) error
}

type MutationAuditor interface {
	LogMutation(c echo.Context, resource, action string, metadata map[string]any, cause error)
}

type nopAuditor struct{}

func (nopAuditor) LogMutation(echo.Context, string, string, map[string]any, error) {}

func auditorOrNop(a MutationAuditor) MutationAuditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}
