package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
)

// Establisher signs a provisioned user into the browser session.
// Note: This must be created per-request since it needs access to the
// request/response.
type Establisher struct {
	manager *Manager
	roles   repositories.MembershipStore
	request *http.Request
	writer  http.ResponseWriter
}

// NewEstablisher creates a per-request session establisher
func NewEstablisher(manager *Manager, roles repositories.MembershipStore, r *http.Request, w http.ResponseWriter) services.SessionEstablisher {
	return &Establisher{
		manager: manager,
		roles:   roles,
		request: r,
		writer:  w,
	}
}

// SignIn builds a principal for the user and writes it to the session
func (e *Establisher) SignIn(ctx context.Context, user *entities.User, props services.SignInProperties, extraClaims []entities.Claim) error {
	roleNames, err := e.roles.RoleNamesForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve roles for session: %w", err)
	}

	principal := &Principal{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		Email:       user.Email,
		Roles:       roleNames,
		Provider:    props.Provider,
	}
	for _, claim := range extraClaims {
		if claim.Type == entities.ClaimSessionID {
			principal.SessionID = claim.Value
		}
	}

	return e.manager.SignIn(e.request, e.writer, principal)
}
