package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/domain/validation"
	"github.com/ferndale-labs/gatehouse/internal/pkg/idgen"
)

// Admin provides the administrator commands: role lifecycle and the two
// membership-sync workflows. Every command takes an explicit actor; the
// workflows never read an ambient request identity.
type Admin struct {
	users       repositories.UserStore
	roles       repositories.RoleStore
	memberships repositories.MembershipStore
	log         *slog.Logger
}

// NewAdmin creates a new administration service
func NewAdmin(
	users repositories.UserStore,
	roles repositories.RoleStore,
	memberships repositories.MembershipStore,
	log *slog.Logger,
) *Admin {
	if log == nil {
		log = slog.Default()
	}
	return &Admin{
		users:       users,
		roles:       roles,
		memberships: memberships,
		log:         log.With(slog.String("workflow", "admin")),
	}
}

var roleTitle = cases.Title(language.English)

// CreateRoleCommand names a new role.
type CreateRoleCommand struct {
	Actor string
	Name  string `validate:"required"`
}

// CreateRole creates a role with a title-cased display name and a
// slug-normalized unique key.
func (a *Admin) CreateRole(ctx context.Context, cmd CreateRoleCommand) (*entities.Role, error) {
	if err := validation.Check(ctx, cmd); err != nil {
		return nil, err
	}

	role := &entities.Role{
		ID:             idgen.NewID(),
		Name:           roleTitle.String(cmd.Name),
		NormalizedName: slug.Make(cmd.Name),
		CreatedAt:      time.Now().UTC(),
	}

	if err := a.roles.Create(ctx, role); err != nil {
		a.adminError(ctx, "creating role", cmd.Actor, err)
		return nil, err
	}

	a.log.Info("role created",
		slog.String("actor", cmd.Actor),
		slog.String("role", role.Name))
	return role, nil
}

// DeleteRoleCommand removes a role by id.
type DeleteRoleCommand struct {
	Actor  string
	RoleID string `validate:"required"`
}

// DeleteRole deletes a role and its memberships. The role must exist.
func (a *Admin) DeleteRole(ctx context.Context, cmd DeleteRoleCommand) error {
	if err := validation.Check(ctx, cmd); err != nil {
		return err
	}

	role, err := a.roles.GetByID(ctx, cmd.RoleID)
	if err != nil {
		return err
	}

	if err := a.roles.Delete(ctx, role.ID); err != nil {
		a.adminError(ctx, "deleting role", cmd.Actor, err)
		return err
	}

	a.log.Info("role deleted",
		slog.String("actor", cmd.Actor),
		slog.String("role", role.Name))
	return nil
}

// SyncRoleMembersCommand applies membership deltas to one role.
type SyncRoleMembersCommand struct {
	Actor     string
	RoleID    string `validate:"required"`
	AddIDs    []string
	RemoveIDs []string
}

// SyncRoleMembers applies the add pass and then the remove pass. Unknown
// user ids are skipped silently; a failing item is recorded and logged
// but never aborts the batch. The returned report carries every per-item
// outcome.
func (a *Admin) SyncRoleMembers(ctx context.Context, cmd SyncRoleMembersCommand) (*entities.SyncReport, error) {
	if err := validation.Check(ctx, cmd); err != nil {
		return nil, err
	}

	role, err := a.roles.GetByID(ctx, cmd.RoleID)
	if err != nil {
		return nil, err
	}

	report := &entities.SyncReport{}
	for _, userID := range cmd.AddIDs {
		user, err := a.users.GetByID(ctx, userID)
		if err != nil {
			report.Skipped(entities.SyncAdd, userID)
			continue
		}
		if err := a.memberships.AddUserToRole(ctx, user.ID, role.ID); err != nil {
			a.adminError(ctx, "adding users to roles", cmd.Actor, err)
			report.Failed(entities.SyncAdd, userID, err)
			continue
		}
		report.Applied(entities.SyncAdd, userID)
	}
	for _, userID := range cmd.RemoveIDs {
		user, err := a.users.GetByID(ctx, userID)
		if err != nil {
			report.Skipped(entities.SyncRemove, userID)
			continue
		}
		if err := a.memberships.RemoveUserFromRole(ctx, user.ID, role.ID); err != nil {
			a.adminError(ctx, "removing users from roles", cmd.Actor, err)
			report.Failed(entities.SyncRemove, userID, err)
			continue
		}
		report.Applied(entities.SyncRemove, userID)
	}

	return report, nil
}

// SyncUserRolesCommand applies role deltas to one user and sets the
// enabled flag.
type SyncUserRolesCommand struct {
	Actor     string
	UserID    string `validate:"required"`
	Enabled   bool
	AddIDs    []string
	RemoveIDs []string
}

// SyncUserRoles toggles the enabled flag first, but only when the new
// value differs from the stored one, then processes the role deltas with
// the same skip/record semantics as SyncRoleMembers.
func (a *Admin) SyncUserRoles(ctx context.Context, cmd SyncUserRolesCommand) (*entities.SyncReport, error) {
	if err := validation.Check(ctx, cmd); err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	report := &entities.SyncReport{}
	if user.Enabled != cmd.Enabled {
		user.Enabled = cmd.Enabled
		user.UpdatedAt = time.Now().UTC()
		if err := a.users.Update(ctx, user); err != nil {
			a.adminError(ctx, "enabling user", cmd.Actor, err)
			report.Failed(entities.SyncEnable, user.ID, err)
		} else {
			report.Applied(entities.SyncEnable, user.ID)
		}
	}

	for _, roleID := range cmd.AddIDs {
		role, err := a.roles.GetByID(ctx, roleID)
		if err != nil {
			report.Skipped(entities.SyncAdd, roleID)
			continue
		}
		if err := a.memberships.AddUserToRole(ctx, user.ID, role.ID); err != nil {
			a.adminError(ctx, "updating a user membership", cmd.Actor, err)
			report.Failed(entities.SyncAdd, roleID, err)
			continue
		}
		report.Applied(entities.SyncAdd, roleID)
	}
	for _, roleID := range cmd.RemoveIDs {
		role, err := a.roles.GetByID(ctx, roleID)
		if err != nil {
			report.Skipped(entities.SyncRemove, roleID)
			continue
		}
		if err := a.memberships.RemoveUserFromRole(ctx, user.ID, role.ID); err != nil {
			a.adminError(ctx, "deleting user membership", cmd.Actor, err)
			report.Failed(entities.SyncRemove, roleID, err)
			continue
		}
		report.Applied(entities.SyncRemove, roleID)
	}

	return report, nil
}

// adminError logs a failed store operation with the action name and the
// acting administrator. Logging never affects control flow.
func (a *Admin) adminError(_ context.Context, action, actor string, err error) {
	a.log.Error("user administration error",
		slog.String("action", action),
		slog.String("actor", actor),
		slog.String("error", err.Error()))
}
