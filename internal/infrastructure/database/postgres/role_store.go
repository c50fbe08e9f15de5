package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
)

// RoleStore implements the RoleStore interface for PostgreSQL
type RoleStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewRoleStore creates a new PostgreSQL role store
func NewRoleStore(db *sqlx.DB) repositories.RoleStore {
	return &RoleStore{
		db:  db,
		log: slog.Default().With(slog.String("store", "role")),
	}
}

type roleRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *roleRow) toEntity() *entities.Role {
	return &entities.Role{
		ID:             r.ID,
		Name:           r.Name,
		NormalizedName: r.NormalizedName,
		CreatedAt:      r.CreatedAt,
	}
}

// Create creates a new role
func (s *RoleStore) Create(ctx context.Context, role *entities.Role) error {
	s.log.Debug("creating role",
		slog.String("id", role.ID),
		slog.String("name", role.Name))

	query := `
		INSERT INTO roles (id, name, normalized_name, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query, role.ID, role.Name, role.NormalizedName, role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicateRole
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by its ID
func (s *RoleStore) GetByID(ctx context.Context, id string) (*entities.Role, error) {
	var row roleRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM roles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return row.toEntity(), nil
}

// GetByNormalizedName retrieves a role by its normalized name
func (s *RoleStore) GetByNormalizedName(ctx context.Context, normalized string) (*entities.Role, error) {
	var row roleRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM roles WHERE normalized_name = $1`, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}
	return row.toEntity(), nil
}

// Delete removes a role. Memberships cascade.
func (s *RoleStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return repositories.ErrRoleNotFound
	}
	return nil
}

// List enumerates all roles ordered by name
func (s *RoleStore) List(ctx context.Context) ([]*entities.Role, error) {
	var rows []roleRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM roles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	roles := make([]*entities.Role, 0, len(rows))
	for i := range rows {
		roles = append(roles, rows[i].toEntity())
	}
	return roles, nil
}
