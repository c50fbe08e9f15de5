package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when no token is found in the session
	ErrNoToken = errors.New("no token in session")

	// ErrInvalidToken is returned when the token cannot be parsed or verified
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Principal is the signed-in identity carried inside the session token
type Principal struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Provider    string   `json:"provider"`   // which external provider signed them in
	SessionID   string   `json:"session_id"` // provider session id, for federated logout
}

// InRole reports whether the principal carries the given role name
func (p *Principal) InRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

type principalClaims struct {
	Principal
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the principal tokens stored in the
// session cookie. Tokens are HS256 signed with the configured key.
type TokenManager struct {
	signingKey []byte
	lifetime   time.Duration
}

// NewTokenManager creates a token manager with the given signing key and
// token lifetime
func NewTokenManager(signingKey []byte, lifetime time.Duration) *TokenManager {
	return &TokenManager{
		signingKey: signingKey,
		lifetime:   lifetime,
	}
}

// Issue signs a new token for the principal
func (tm *TokenManager) Issue(principal *Principal) (string, error) {
	now := time.Now()
	claims := principalClaims{
		Principal: *principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign principal token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the principal it carries
func (tm *TokenManager) Parse(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	var claims principalClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &claims.Principal, nil
}
