package postgres

import (
	"context"
	"fmt"
	"institute-service/internal/domain/role"
	apperrors "institute-service/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const roleColumns = "id, name, description, created_at, updated_at"

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, input role.CreateRoleInput) (*role.Role, error) {
	query := `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING ` + roleColumns

	rl, err := scanRole(r.db.Pool.QueryRow(ctx, query, input.Name, input.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errRoleNameExists)
		}
		return nil, errFailedCreateRole(err)
	}

	return rl, nil
}

// Upsert creates the role or refreshes its description when the name exists.
func (r *RoleRepository) Upsert(ctx context.Context, input role.CreateRoleInput) (*role.Role, error) {
	query := `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, updated_at = NOW()
		RETURNING ` + roleColumns

	rl, err := scanRole(r.db.Pool.QueryRow(ctx, query, input.Name, input.Description))
	if err != nil {
		return nil, errFailedUpsertRole(err)
	}

	return rl, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	rl, err := scanRole(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errRoleNotFound)
		}
		return nil, errFailedGetRole(err)
	}

	return rl, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	rl, err := scanRole(r.db.Pool.QueryRow(ctx, query, name))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errRoleNotFound)
		}
		return nil, errFailedGetRole(err)
	}

	return rl, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListRoles(err)
	}
	defer rows.Close()

	roles := []*role.Role{}
	for rows.Next() {
		rl, err := scanRole(rows)
		if err != nil {
			return nil, errFailedScanRole(err)
		}
		roles = append(roles, rl)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateRoles(err)
	}

	return roles, nil
}

func (r *RoleRepository) Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error) {
	query := "UPDATE roles SET updated_at = NOW()"
	args := []any{id}
	argCount := 1

	if input.Name != nil {
		argCount++
		query += fmt.Sprintf(", name = $%d", argCount)
		args = append(args, *input.Name)
	}

	if input.Description != nil {
		argCount++
		query += fmt.Sprintf(", description = $%d", argCount)
		args = append(args, *input.Description)
	}

	query += " WHERE id = $1 RETURNING " + roleColumns

	rl, err := scanRole(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errRoleNotFound)
		}
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errRoleNameExists)
		}
		return nil, errFailedUpdateRole(err)
	}

	return rl, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM roles WHERE id = $1"

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return errFailedDeleteRole(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errRoleNotFound)
	}

	return nil
}

func scanRole(row pgx.Row) (*role.Role, error) {
	rl := &role.Role{}
	if err := row.Scan(
		&rl.ID,
		&rl.Name,
		&rl.Description,
		&rl.CreatedAt,
		&rl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return rl, nil
}
