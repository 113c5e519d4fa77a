package repository

import (
	"context"
	"institute-service/internal/domain/policy"
	"institute-service/internal/domain/role"
)

// PolicyRepository persists the decision engine's rule tuples.
type PolicyRepository interface {
	LoadAll(ctx context.Context) ([]policy.Rule, error)
	Insert(ctx context.Context, rule policy.Rule) error
	InsertBatch(ctx context.Context, rules []policy.Rule) error
	Remove(ctx context.Context, rule policy.Rule) error
	RemoveBatch(ctx context.Context, rules []policy.Rule) error
	RemoveFiltered(ctx context.Context, filter policy.Filter) error
	Clear(ctx context.Context) error
	ReplaceAll(ctx context.Context, rules []policy.Rule) error
}

// RoleRepository defines role data access operations
type RoleRepository interface {
	Create(ctx context.Context, input role.CreateRoleInput) (*role.Role, error)
	Upsert(ctx context.Context, input role.CreateRoleInput) (*role.Role, error)
	GetByID(ctx context.Context, id int64) (*role.Role, error)
	GetByName(ctx context.Context, name string) (*role.Role, error)
	List(ctx context.Context) ([]*role.Role, error)
	Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error)
	Delete(ctx context.Context, id int64) error
}
