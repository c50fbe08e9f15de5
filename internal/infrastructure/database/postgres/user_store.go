package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
)

// UserStore implements the UserStore interface for PostgreSQL
type UserStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewUserStore creates a new PostgreSQL user store
func NewUserStore(db *sqlx.DB) repositories.UserStore {
	return &UserStore{
		db:  db,
		log: slog.Default().With(slog.String("store", "user")),
	}
}

// userRow represents a user as stored in the database
type userRow struct {
	ID            string       `db:"id"`
	Username      string       `db:"username"`
	Email         string       `db:"email"`
	FirstName     string       `db:"first_name"`
	LastName      string       `db:"last_name"`
	Enabled       bool         `db:"enabled"`
	LastLoginTime sql.NullTime `db:"last_login_time"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// toEntity converts a userRow to a domain entity
func (r *userRow) toEntity() *entities.User {
	user := &entities.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.LastLoginTime.Valid {
		user.LastLoginTime = &r.LastLoginTime.Time
	}
	return user
}

// isUniqueViolation reports whether err is a unique-constraint failure
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create creates a new user. The username must be non-empty: a blank
// NameID in a federated assertion would otherwise mint a shared
// username="" account that every later blank assertion resolves to.
func (s *UserStore) Create(ctx context.Context, user *entities.User) error {
	if user.Username == "" {
		return repositories.ErrInvalidUsername
	}

	s.log.Debug("creating user",
		slog.String("id", user.ID),
		slog.String("username", user.Username))

	query := `
		INSERT INTO users (id, username, email, first_name, last_name, enabled, last_login_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var lastLogin sql.NullTime
	if user.LastLoginTime != nil {
		lastLogin = sql.NullTime{Time: *user.LastLoginTime, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.Enabled, lastLogin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toEntity(), nil
}

// GetByExternalLogin retrieves the user linked to an external provider key
func (s *UserStore) GetByExternalLogin(ctx context.Context, provider, providerKey string) (*entities.User, error) {
	query := `
		SELECT u.* FROM users u
		JOIN user_logins l ON l.user_id = u.id
		WHERE l.provider = $1 AND l.provider_key = $2`

	var row userRow
	err := s.db.GetContext(ctx, &row, query, provider, providerKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by external login: %w", err)
	}
	return row.toEntity(), nil
}

// Update updates a user's mutable fields. Username is immutable and is
// deliberately not part of the statement.
func (s *UserStore) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, enabled = $5, updated_at = $6
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Enabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the user's last login timestamp
func (s *UserStore) UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_time = $2, updated_at = $2 WHERE id = $1`,
		userID, loginTime)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

// AddClaims attaches claims to a user. Existing claims are left alone so
// repeated provisioning attempts converge.
func (s *UserStore) AddClaims(ctx context.Context, userID string, claims []entities.Claim) error {
	query := `
		INSERT INTO user_claims (user_id, claim_type, claim_value)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`

	for _, claim := range claims {
		if _, err := s.db.ExecContext(ctx, query, userID, claim.Type, claim.Value); err != nil {
			return fmt.Errorf("failed to add claim %s: %w", claim.Type, err)
		}
	}
	return nil
}

// ListClaims retrieves all claims attached to a user
func (s *UserStore) ListClaims(ctx context.Context, userID string) ([]entities.Claim, error) {
	var claims []entities.Claim
	err := s.db.SelectContext(ctx, &claims,
		`SELECT claim_type, claim_value FROM user_claims WHERE user_id = $1 ORDER BY claim_type, claim_value`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

// AddLogin registers an external login linkage. Re-registering the same
// linkage for the same user is a no-op; a linkage claimed by another
// user is an error.
func (s *UserStore) AddLogin(ctx context.Context, login *entities.ExternalLogin) error {
	query := `
		INSERT INTO user_logins (provider, provider_key, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_key) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, login.Provider, login.ProviderKey, login.UserID)
	if err != nil {
		return fmt.Errorf("failed to add login: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// The linkage already exists; idempotent only when it is ours.
	var owner string
	err = s.db.GetContext(ctx, &owner,
		`SELECT user_id FROM user_logins WHERE provider = $1 AND provider_key = $2`,
		login.Provider, login.ProviderKey)
	if err != nil {
		return fmt.Errorf("failed to check login owner: %w", err)
	}
	if owner != login.UserID {
		return repositories.ErrDuplicateLogin
	}
	return nil
}

// List enumerates all users in creation order
func (s *UserStore) List(ctx context.Context) ([]*entities.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*entities.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toEntity())
	}
	return users, nil
}
