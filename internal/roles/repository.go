package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munifin/munifin/internal/shared"
)

// Repository encapsulates DB operations for roles.
type Repository interface {
	Get(ctx context.Context, id int64) (Role, error)
	List(ctx context.Context) ([]Role, error)
	Create(ctx context.Context, role Role) (Role, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `SELECT id, name, module, is_encoder, permissions, created_at, updated_at
FROM roles WHERE id=$1`, id).
		Scan(&role.ID, &role.Name, &role.Module, &role.IsEncoder, &role.Permissions, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, module, is_encoder, permissions, created_at, updated_at
FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Module, &role.IsEncoder, &role.Permissions, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *repository) Create(ctx context.Context, role Role) (Role, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO roles (name, module, is_encoder, permissions)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		role.Name, role.Module, role.IsEncoder, role.Permissions).
		Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}
