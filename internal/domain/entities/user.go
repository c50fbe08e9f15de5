package entities

import "time"

// User represents a local principal mirroring a federated identity.
// Username carries the stable external identifier (the federation NameID)
// and is immutable after creation.
type User struct {
	ID            string     `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	Email         string     `json:"email" db:"email"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Enabled       bool       `json:"enabled" db:"enabled"`
	LastLoginTime *time.Time `json:"last_login_time,omitempty" db:"last_login_time"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the user's full name, falling back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// Claim is a typed attribute attached to a user, sourced from the
// identity assertion.
type Claim struct {
	Type  string `json:"type" db:"claim_type"`
	Value string `json:"value" db:"claim_value"`
}

// Well-known claim types carried over from the federation assertion.
const (
	ClaimGivenName = "givenname"
	ClaimSurname   = "surname"
	ClaimEmail     = "email"
	ClaimSessionID = "saml_sid"
	ClaimNameID    = "nameid"
)

// ExternalLogin links a local user to an external authentication
// provider's subject key. A provisioned user always has at least one.
type ExternalLogin struct {
	Provider    string    `json:"provider" db:"provider"`
	ProviderKey string    `json:"provider_key" db:"provider_key"`
	UserID      string    `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Key returns a provider-qualified identifier for logging.
func (l *ExternalLogin) Key() string {
	return l.Provider + ":" + l.ProviderKey
}
