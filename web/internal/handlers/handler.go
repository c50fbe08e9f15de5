package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	saml2 "github.com/crewjam/saml"

	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/domain/validation"
	"github.com/ferndale-labs/gatehouse/web/internal/middleware"
	"github.com/ferndale-labs/gatehouse/web/internal/render"
	"github.com/ferndale-labs/gatehouse/web/internal/session"
)

// Handler holds the dependencies shared by all web handlers
type Handler struct {
	sessions    *session.Manager
	memberships repositories.MembershipStore
	provisioner *services.Provisioner
	admin       *services.Admin
	directory   *services.Directory
	templates   *render.TemplateSet
	sp          *saml2.ServiceProvider
	provider    string // login provider name recorded on linkages
	log         *slog.Logger
}

// New creates the web handler set
func New(
	sessions *session.Manager,
	memberships repositories.MembershipStore,
	provisioner *services.Provisioner,
	admin *services.Admin,
	directory *services.Directory,
	templates *render.TemplateSet,
	sp *saml2.ServiceProvider,
	provider string,
	log *slog.Logger,
) *Handler {
	return &Handler{
		sessions:    sessions,
		memberships: memberships,
		provisioner: provisioner,
		admin:       admin,
		directory:   directory,
		templates:   templates,
		sp:          sp,
		provider:    provider,
		log:         log,
	}
}

// pageData is the common payload handed to every template
type pageData struct {
	Principal *session.Principal
	Error     string
	Notice    string
}

// newPageData picks up the principal attached by the auth middleware,
// falling back to the session for pages outside it
func (h *Handler) newPageData(r *http.Request) pageData {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		principal, _ = h.sessions.Principal(r)
	}
	return pageData{Principal: principal}
}

// renderPage executes a page template, turning a render failure into a
// plain 500
func (h *Handler) renderPage(w http.ResponseWriter, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Execute(w, page, data); err != nil {
		h.log.Error("failed to render template",
			slog.String("template", page),
			slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// errorPageData feeds the error template
type errorPageData struct {
	pageData
	Heading string
	Message string
}

// renderError shows the error screen with the given status
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := errorPageData{
		pageData: h.newPageData(r),
		Heading:  heading,
		Message:  message,
	}
	if err := h.templates.Execute(w, "error.html", data); err != nil {
		h.log.Error("failed to render error template", slog.Any("error", err))
	}
}

// serviceError maps domain errors onto HTTP error screens
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		h.renderError(w, r, http.StatusNotFound, "User not found", "No user exists with that id.")
	case errors.Is(err, repositories.ErrRoleNotFound):
		h.renderError(w, r, http.StatusNotFound, "Role not found", "No role exists with that id.")
	case errors.Is(err, repositories.ErrDuplicateRole):
		h.renderError(w, r, http.StatusConflict, "Role already exists", "A role with that name already exists.")
	case errors.As(err, &verr):
		h.renderError(w, r, http.StatusBadRequest, "Invalid request", verr.Error())
	default:
		h.log.Error("request failed", slog.Any("error", err))
		h.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The operation could not be completed.")
	}
}

// actor names the acting principal for audit fields on admin commands
func actor(r *http.Request) string {
	if principal := middleware.PrincipalFromContext(r.Context()); principal != nil {
		return principal.Username
	}
	return "unknown"
}
