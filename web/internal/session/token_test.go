package session

import (
	"errors"
	"testing"
	"time"
)

func testPrincipal() *Principal {
	return &Principal{
		UserID:      "12345",
		Username:    "marisol.vega",
		DisplayName: "Marisol Vega",
		Email:       "marisol.vega@example.com",
		Roles:       []string{"Operators", "Site Admins"},
		Provider:    "saml",
		SessionID:   "idp-session-9",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager([]byte("test-signing-key"), time.Hour)

	token, err := tm.Issue(testPrincipal())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.UserID != "12345" || got.Username != "marisol.vega" {
		t.Errorf("Parse() principal = %+v", got)
	}
	if got.SessionID != "idp-session-9" {
		t.Errorf("Parse() SessionID = %q, want %q", got.SessionID, "idp-session-9")
	}
	if len(got.Roles) != 2 {
		t.Errorf("Parse() roles = %v, want 2 entries", got.Roles)
	}
}

func TestTokenWrongKey(t *testing.T) {
	issuer := NewTokenManager([]byte("key-one"), time.Hour)
	verifier := NewTokenManager([]byte("key-two"), time.Hour)

	token, err := issuer.Issue(testPrincipal())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager([]byte("test-signing-key"), -time.Minute)

	token, err := tm.Issue(testPrincipal())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Parse() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenEmpty(t *testing.T) {
	tm := NewTokenManager([]byte("test-signing-key"), time.Hour)

	if _, err := tm.Parse(""); !errors.Is(err, ErrNoToken) {
		t.Errorf("Parse(\"\") error = %v, want ErrNoToken", err)
	}
	if _, err := tm.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestPrincipalInRole(t *testing.T) {
	p := testPrincipal()

	if !p.InRole("Site Admins") {
		t.Error("InRole(existing) = false, want true")
	}
	if p.InRole("site admins") {
		t.Error("InRole is case sensitive, lower-case match should be false")
	}
	if p.InRole("Nobody") {
		t.Error("InRole(absent) = true, want false")
	}
}
