package repositories

import (
	"context"
	"time"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
)

// UserStore defines the interface for user data access. It is the only
// owner of user persistence; the workflows hold no state of their own.
type UserStore interface {
	// Create a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByExternalLogin retrieves the user linked to an external
	// provider's subject key. This is the primary lookup during login.
	GetByExternalLogin(ctx context.Context, provider, providerKey string) (*entities.User, error)

	// Update an existing user
	Update(ctx context.Context, user *entities.User) error

	// UpdateLastLogin updates the user's last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error

	// AddClaims attaches claims to a user. Re-attaching an existing claim
	// is a no-op so the provisioning path stays idempotent.
	AddClaims(ctx context.Context, userID string, claims []entities.Claim) error

	// ListClaims retrieves all claims attached to a user
	ListClaims(ctx context.Context, userID string) ([]entities.Claim, error)

	// AddLogin registers an external login linkage for a user
	AddLogin(ctx context.Context, login *entities.ExternalLogin) error

	// List enumerates all users in store order
	List(ctx context.Context) ([]*entities.User, error)
}
