package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/pkg/idgen"
)

// FederatedProfile is the flat claim record handed to provisioning after
// assertion verification. Absent claims are empty strings.
type FederatedProfile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	SessionID  string
}

// SignInProperties carries per-login parameters through to session
// establishment.
type SignInProperties struct {
	// Provider is the authentication scheme the assertion came from
	Provider string

	// ReturnURL is the local path to land on after sign-in, if any
	ReturnURL string
}

// SessionEstablisher completes a sign-in with the accumulated local
// claims. The web layer implements it over the cookie session.
type SessionEstablisher interface {
	SignIn(ctx context.Context, user *entities.User, props SignInProperties, extraClaims []entities.Claim) error
}

// ProvisionPolicy configures environment-dependent provisioning behavior.
type ProvisionPolicy struct {
	// Provider is the linkage provider name recorded for new accounts
	Provider string

	// AutoEnableUsers enables newly created accounts immediately.
	// Local development only; production accounts stay disabled until
	// an administrator enables them.
	AutoEnableUsers bool

	// AttachSessionClaimOnFailure persists the IdP session claim even
	// when provisioning failed, so a later federated logout can still
	// correlate the IdP session with the local account.
	AttachSessionClaimOnFailure bool
}

// ProvisionResult is the transient outcome of a provisioning run.
type ProvisionResult struct {
	User    *entities.User
	Created bool
}

// Provisioner decides, on every federated login, whether to create a
// local account, attach claims, and establish a session. It holds no
// state across invocations.
type Provisioner struct {
	users  repositories.UserStore
	policy ProvisionPolicy
	log    *slog.Logger
}

// NewProvisioner creates a new provisioning workflow
func NewProvisioner(users repositories.UserStore, policy ProvisionPolicy, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{
		users:  users,
		policy: policy,
		log:    log.With(slog.String("workflow", "provision")),
	}
}

// Provision looks up the asserted identity, creates and links a local
// account on first login, refreshes last-login metadata on returning
// logins, and signs the user in. Steps already persisted stay persisted
// when a later step fails; every write is idempotent, so a retried login
// converges rather than erroring.
func (p *Provisioner) Provision(ctx context.Context, profile FederatedProfile, props SignInProperties, sessions SessionEstablisher) (*ProvisionResult, error) {
	// A blank NameID is not rejected here; the lookup below simply
	// misses and the creation path runs with an empty username, which
	// the store rejects with ErrInvalidUsername.
	p.log.Info("looking up federated user",
		slog.String("provider", p.policy.Provider),
		slog.String("external_id", profile.ExternalID))

	localClaims := []entities.Claim{
		{Type: entities.ClaimSessionID, Value: profile.SessionID},
	}

	user, err := p.users.GetByExternalLogin(ctx, p.policy.Provider, profile.ExternalID)
	switch {
	case err == nil:
		// Returning user: refresh last-login metadata, best effort.
		now := time.Now().UTC()
		if uerr := p.users.UpdateLastLogin(ctx, user.ID, now); uerr != nil {
			p.log.Warn("failed to update last login",
				slog.String("username", user.Username),
				slog.Any("error", uerr))
		} else {
			user.LastLoginTime = &now
		}
		p.log.Info("federated user found",
			slog.String("username", user.Username),
			slog.Time("last_login", now))

	case errors.Is(err, repositories.ErrUserNotFound):
		user, err = p.createUser(ctx, profile)
		if err != nil {
			return nil, err
		}
		if !user.Enabled {
			p.log.Warn("user is not enabled", slog.String("username", user.Username))
			p.attachOnFailure(ctx, user, localClaims)
			return nil, ErrUserNotEnabled
		}
		if err := sessions.SignIn(ctx, user, props, localClaims); err != nil {
			return nil, fmt.Errorf("failed to establish session: %w", err)
		}
		return &ProvisionResult{User: user, Created: true}, nil

	default:
		return nil, fmt.Errorf("failed to look up user by external login: %w", err)
	}

	if err := sessions.SignIn(ctx, user, props, localClaims); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}
	return &ProvisionResult{User: user}, nil
}

// createUser builds the local account for a first-time login: the user
// record, its three profile claims, and the external-login linkage, in
// that order. The first failing step stops the path; no compensating
// rollback is attempted.
func (p *Provisioner) createUser(ctx context.Context, profile FederatedProfile) (*entities.User, error) {
	p.log.Info("federated user not found, provisioning",
		slog.String("external_id", profile.ExternalID))

	now := time.Now().UTC()
	user := &entities.User{
		ID:            idgen.NewID(),
		Username:      profile.ExternalID,
		Email:         profile.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Enabled:       p.policy.AutoEnableUsers,
		LastLoginTime: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := p.users.Create(ctx, user); err != nil {
		p.log.Error("failed to create user",
			slog.String("username", user.Username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	p.log.Info("user created", slog.String("username", user.Username))

	claims := []entities.Claim{
		{Type: entities.ClaimGivenName, Value: profile.FirstName},
		{Type: entities.ClaimSurname, Value: profile.LastName},
		{Type: entities.ClaimEmail, Value: profile.Email},
	}
	if err := p.users.AddClaims(ctx, user.ID, claims); err != nil {
		p.log.Error("failed to attach profile claims",
			slog.String("username", user.Username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to attach claims: %w", err)
	}

	login := &entities.ExternalLogin{
		Provider:    p.policy.Provider,
		ProviderKey: profile.ExternalID,
		UserID:      user.ID,
	}
	if err := p.users.AddLogin(ctx, login); err != nil {
		p.log.Error("failed to register external login",
			slog.String("username", user.Username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to register external login: %w", err)
	}

	return user, nil
}

// attachOnFailure persists the session claim on a failed provisioning
// path when the policy asks for it.
func (p *Provisioner) attachOnFailure(ctx context.Context, user *entities.User, claims []entities.Claim) {
	if !p.policy.AttachSessionClaimOnFailure {
		return
	}
	if err := p.users.AddClaims(ctx, user.ID, claims); err != nil {
		p.log.Warn("failed to attach session claim",
			slog.String("username", user.Username),
			slog.Any("error", err))
	}
}
