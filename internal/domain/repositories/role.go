package repositories

import (
	"context"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
)

// RoleStore defines the interface for role data access
type RoleStore interface {
	// Create a new role
	Create(ctx context.Context, role *entities.Role) error

	// GetByID retrieves a role by its ID
	GetByID(ctx context.Context, id string) (*entities.Role, error)

	// GetByNormalizedName retrieves a role by its normalized name key
	GetByNormalizedName(ctx context.Context, normalized string) (*entities.Role, error)

	// Delete removes a role and its memberships
	Delete(ctx context.Context, id string) error

	// List enumerates all roles in store order
	List(ctx context.Context) ([]*entities.Role, error)
}

// MembershipStore defines the interface for the user/role relation
type MembershipStore interface {
	// AddUserToRole adds a membership. Adding an existing membership is
	// a no-op.
	AddUserToRole(ctx context.Context, userID, roleID string) error

	// RemoveUserFromRole removes a membership. Removing an absent
	// membership is a no-op.
	RemoveUserFromRole(ctx context.Context, userID, roleID string) error

	// IsUserInRole reports whether a membership exists
	IsUserInRole(ctx context.Context, userID, roleID string) (bool, error)

	// RoleNamesForUser lists the display names of a user's roles
	RoleNamesForUser(ctx context.Context, userID string) ([]string, error)
}
