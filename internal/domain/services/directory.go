package services

import (
	"context"
	"log/slog"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/domain/validation"
)

// Directory provides the read-only projections for the administration
// screens. Absent ids surface as the repositories' not-found sentinels
// for every query; enumeration order follows the store's native order.
type Directory struct {
	users       repositories.UserStore
	roles       repositories.RoleStore
	memberships repositories.MembershipStore
	log         *slog.Logger
}

// NewDirectory creates a new directory service
func NewDirectory(
	users repositories.UserStore,
	roles repositories.RoleStore,
	memberships repositories.MembershipStore,
	log *slog.Logger,
) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{
		users:       users,
		roles:       roles,
		memberships: memberships,
		log:         log.With(slog.String("workflow", "directory")),
	}
}

type roleUsersQuery struct {
	RoleID string `validate:"required"`
}

// RoleUsers partitions every known user into members and non-members of
// the role, based on a live membership check per user.
func (d *Directory) RoleUsers(ctx context.Context, roleID string) (*entities.RoleUsers, error) {
	if err := validation.Check(ctx, roleUsersQuery{RoleID: roleID}); err != nil {
		return nil, err
	}

	role, err := d.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	users, err := d.users.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &entities.RoleUsers{
		Role:       role,
		Members:    []*entities.User{},
		NonMembers: []*entities.User{},
	}
	for _, user := range users {
		inRole, err := d.memberships.IsUserInRole(ctx, user.ID, role.ID)
		if err != nil {
			return nil, err
		}
		if inRole {
			result.Members = append(result.Members, user)
		} else {
			result.NonMembers = append(result.NonMembers, user)
		}
	}
	return result, nil
}

type userRolesQuery struct {
	UserID string `validate:"required"`
}

// UserRoles partitions every known role into the user's member and
// non-member roles.
func (d *Directory) UserRoles(ctx context.Context, userID string) (*entities.UserRoles, error) {
	if err := validation.Check(ctx, userRolesQuery{UserID: userID}); err != nil {
		return nil, err
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := d.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &entities.UserRoles{
		User:           user,
		MemberRoles:    []*entities.Role{},
		NonMemberRoles: []*entities.Role{},
	}
	for _, role := range roles {
		inRole, err := d.memberships.IsUserInRole(ctx, user.ID, role.ID)
		if err != nil {
			return nil, err
		}
		if inRole {
			result.MemberRoles = append(result.MemberRoles, role)
		} else {
			result.NonMemberRoles = append(result.NonMemberRoles, role)
		}
	}
	return result, nil
}

// UserDetails fetches a single user and the names of their roles.
func (d *Directory) UserDetails(ctx context.Context, userID string) (*entities.UserDetails, error) {
	if err := validation.Check(ctx, userRolesQuery{UserID: userID}); err != nil {
		return nil, err
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roleNames, err := d.memberships.RoleNamesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &entities.UserDetails{User: user, MemberRoles: roleNames}, nil
}

// Users lists all users in store order.
func (d *Directory) Users(ctx context.Context) ([]*entities.User, error) {
	return d.users.List(ctx)
}

// Roles lists all roles in store order.
func (d *Directory) Roles(ctx context.Context) ([]*entities.Role, error) {
	return d.roles.List(ctx)
}

// UserClaims lists the persisted claims for a user.
func (d *Directory) UserClaims(ctx context.Context, userID string) ([]entities.Claim, error) {
	if err := validation.Check(ctx, userRolesQuery{UserID: userID}); err != nil {
		return nil, err
	}
	return d.users.ListClaims(ctx, userID)
}
