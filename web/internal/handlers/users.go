package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/pkg/metrics"
)

// UsersList shows every local account
func (h *Handler) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.Users(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	data := struct {
		pageData
		Users []*entities.User
	}{pageData: h.newPageData(r), Users: users}
	h.renderPage(w, "users.html", data)
}

// UserDetails shows one account with its role partition and the edit form
func (h *Handler) UserDetails(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	details, err := h.directory.UserDetails(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	roles, err := h.directory.UserRoles(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	data := struct {
		pageData
		Details *entities.UserDetails
		Roles   *entities.UserRoles
	}{pageData: h.newPageData(r), Details: details, Roles: roles}
	h.renderPage(w, "user.html", data)
}

// UserRolesSave applies the submitted role membership and enabled state.
// The form posts the desired end state; the deltas against the current
// partition are computed here.
func (h *Handler) UserRolesSave(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid request", "The form could not be read.")
		return
	}

	current, err := h.directory.UserRoles(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	wanted := make(map[string]bool)
	for _, roleID := range r.PostForm["member"] {
		wanted[roleID] = true
	}

	var addIDs, removeIDs []string
	for _, role := range current.NonMemberRoles {
		if wanted[role.ID] {
			addIDs = append(addIDs, role.ID)
		}
	}
	for _, role := range current.MemberRoles {
		if !wanted[role.ID] {
			removeIDs = append(removeIDs, role.ID)
		}
	}

	report, err := h.admin.SyncUserRoles(r.Context(), services.SyncUserRolesCommand{
		Actor:     actor(r),
		UserID:    userID,
		Enabled:   r.PostFormValue("enabled") == "true",
		AddIDs:    addIDs,
		RemoveIDs: removeIDs,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	metrics.RecordSyncReport(report)
	if rerr := report.Err(); rerr != nil {
		h.log.Warn("user role sync applied partially",
			slog.String("user_id", userID),
			slog.Any("error", rerr))
	}

	http.Redirect(w, r, "/admin/users/"+userID, http.StatusSeeOther)
}
