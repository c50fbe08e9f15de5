package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ferndale-labs/gatehouse/web/internal/session"
)

type contextKey string

// principalKey is where RequireAuth stores the verified principal
const principalKey contextKey = "principal"

// AuthMiddleware handles authentication checks for requests
type AuthMiddleware struct {
	sessions *session.Manager
	log      *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions *session.Manager, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		log:      log,
	}
}

// RequireAuth is middleware that ensures the user is signed in.
// The verified principal is placed on the request context for handlers.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.sessions.Principal(r)
		if err != nil {
			m.log.Debug("no valid session, redirecting to login",
				slog.String("path", r.URL.Path))
			// Stash where they were headed so login can send them back
			_ = m.sessions.SetReturnURL(r, w, r.URL.RequestURI())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the signed-in principal carries the given role.
// Must be stacked inside RequireAuth.
func (m *AuthMiddleware) RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFromContext(r.Context())
		if principal == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !principal.InRole(role) {
			m.log.Warn("access denied",
				slog.String("user_id", principal.UserID),
				slog.String("role", role),
				slog.String("path", r.URL.Path))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext returns the principal RequireAuth attached, or nil
func PrincipalFromContext(ctx context.Context) *session.Principal {
	principal, _ := ctx.Value(principalKey).(*session.Principal)
	return principal
}
