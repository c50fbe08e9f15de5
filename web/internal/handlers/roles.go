package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/pkg/metrics"
)

// RolesList shows all roles with the create form
func (h *Handler) RolesList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.directory.Roles(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	data := struct {
		pageData
		Roles []*entities.Role
	}{pageData: h.newPageData(r), Roles: roles}
	h.renderPage(w, "roles.html", data)
}

// RoleCreate creates a new role from the submitted name
func (h *Handler) RoleCreate(w http.ResponseWriter, r *http.Request) {
	role, err := h.admin.CreateRole(r.Context(), services.CreateRoleCommand{
		Actor: actor(r),
		Name:  r.PostFormValue("name"),
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin/roles/"+role.ID, http.StatusSeeOther)
}

// RoleDelete removes a role and its memberships
func (h *Handler) RoleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.admin.DeleteRole(r.Context(), services.DeleteRoleCommand{
		Actor:  actor(r),
		RoleID: mux.Vars(r)["id"],
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

// RoleDetails shows one role with the member partition and edit form
func (h *Handler) RoleDetails(w http.ResponseWriter, r *http.Request) {
	roleUsers, err := h.directory.RoleUsers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	data := struct {
		pageData
		Role       *entities.Role
		Members    []*entities.User
		NonMembers []*entities.User
	}{
		pageData:   h.newPageData(r),
		Role:       roleUsers.Role,
		Members:    roleUsers.Members,
		NonMembers: roleUsers.NonMembers,
	}
	h.renderPage(w, "role.html", data)
}

// RoleMembersSave applies the submitted membership end state
func (h *Handler) RoleMembersSave(w http.ResponseWriter, r *http.Request) {
	roleID := mux.Vars(r)["id"]

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid request", "The form could not be read.")
		return
	}

	current, err := h.directory.RoleUsers(r.Context(), roleID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	wanted := make(map[string]bool)
	for _, userID := range r.PostForm["member"] {
		wanted[userID] = true
	}

	var addIDs, removeIDs []string
	for _, user := range current.NonMembers {
		if wanted[user.ID] {
			addIDs = append(addIDs, user.ID)
		}
	}
	for _, user := range current.Members {
		if !wanted[user.ID] {
			removeIDs = append(removeIDs, user.ID)
		}
	}

	report, err := h.admin.SyncRoleMembers(r.Context(), services.SyncRoleMembersCommand{
		Actor:     actor(r),
		RoleID:    roleID,
		AddIDs:    addIDs,
		RemoveIDs: removeIDs,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	metrics.RecordSyncReport(report)
	if rerr := report.Err(); rerr != nil {
		h.log.Warn("role member sync applied partially",
			slog.String("role_id", roleID),
			slog.Any("error", rerr))
	}

	http.Redirect(w, r, "/admin/roles/"+roleID, http.StatusSeeOther)
}
