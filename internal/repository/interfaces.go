package repository

import (
	"context"
	"institute-service/internal/domain/role"
)

// Narrow interfaces used by the auth middleware.

type RoleResolver interface {
	GetByID(ctx context.Context, id int64) (*role.Role, error)
}
