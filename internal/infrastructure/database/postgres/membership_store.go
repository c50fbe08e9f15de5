package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
)

// MembershipStore implements the MembershipStore interface for PostgreSQL
type MembershipStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewMembershipStore creates a new PostgreSQL membership store
func NewMembershipStore(db *sqlx.DB) repositories.MembershipStore {
	return &MembershipStore{
		db:  db,
		log: slog.Default().With(slog.String("store", "membership")),
	}
}

// AddUserToRole adds a user to a role. Adding an existing member is a no-op.
func (s *MembershipStore) AddUserToRole(ctx context.Context, userID, roleID string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		var pqErr *pq.Error
		// 23503: one side of the pair does not exist
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("membership references missing row: %w", err)
		}
		return fmt.Errorf("failed to add user to role: %w", err)
	}
	return nil
}

// RemoveUserFromRole removes a user from a role. Removing a non-member
// is a no-op.
func (s *MembershipStore) RemoveUserFromRole(ctx context.Context, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove user from role: %w", err)
	}
	return nil
}

// IsUserInRole reports whether the user is a member of the role
func (s *MembershipStore) IsUserInRole(ctx context.Context, userID, roleID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2)`,
		userID, roleID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// RoleNamesForUser returns the display names of all roles the user
// belongs to, ordered by name.
func (s *MembershipStore) RoleNamesForUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list role names: %w", err)
	}
	return names, nil
}
