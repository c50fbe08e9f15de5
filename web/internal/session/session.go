package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	// TokenKey is the session key for storing the principal token
	TokenKey = "token"

	// ReturnURLKey is the session key for the post-login redirect target
	ReturnURLKey = "return_url"

	// RequestIDKey is the session key for the outstanding AuthnRequest id
	RequestIDKey = "saml_request_id"
)

// Manager wraps gorilla/sessions for our use case
type Manager struct {
	store      *sessions.CookieStore
	tokens     *TokenManager
	cookieName string
}

// Options configures the session cookie
type Options struct {
	CookieName string
	Lifetime   time.Duration
	Secure     bool
}

// NewManager creates a new session manager
// secretKey should be 32 bytes for AES-256
func NewManager(secretKey []byte, tokens *TokenManager, opts Options) *Manager {
	store := sessions.NewCookieStore(secretKey)

	// Configure session options
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store:      store,
		tokens:     tokens,
		cookieName: opts.CookieName,
	}
}

// SignIn issues a principal token and stores it in the session
func (m *Manager) SignIn(r *http.Request, w http.ResponseWriter, principal *Principal) error {
	token, err := m.tokens.Issue(principal)
	if err != nil {
		return err
	}

	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		// Create new session if the existing cookie doesn't decode
		session, _ = m.store.New(r, m.cookieName)
	}

	session.Values[TokenKey] = token
	return session.Save(r, w)
}

// Principal retrieves and verifies the signed-in principal from the session
func (m *Manager) Principal(r *http.Request) (*Principal, error) {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		return nil, ErrNoToken
	}

	token, ok := session.Values[TokenKey].(string)
	if !ok {
		return nil, ErrNoToken
	}

	return m.tokens.Parse(token)
}

// IsSignedIn checks whether a valid principal exists in the session
func (m *Manager) IsSignedIn(r *http.Request) bool {
	_, err := m.Principal(r)
	return err == nil
}

// SetReturnURL stashes the post-login redirect target in the session
func (m *Manager) SetReturnURL(r *http.Request, w http.ResponseWriter, returnURL string) error {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		session, _ = m.store.New(r, m.cookieName)
	}

	session.Values[ReturnURLKey] = returnURL
	return session.Save(r, w)
}

// TakeReturnURL pops the stashed redirect target, if any
func (m *Manager) TakeReturnURL(r *http.Request, w http.ResponseWriter) string {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		return ""
	}

	returnURL, ok := session.Values[ReturnURLKey].(string)
	if !ok {
		return ""
	}

	delete(session.Values, ReturnURLKey)
	_ = session.Save(r, w)
	return returnURL
}

// SetRequestID records the id of an issued authentication request so
// the response can be matched to it
func (m *Manager) SetRequestID(r *http.Request, w http.ResponseWriter, id string) error {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		session, _ = m.store.New(r, m.cookieName)
	}

	session.Values[RequestIDKey] = id
	return session.Save(r, w)
}

// TakeRequestID pops the outstanding authentication request id, if any
func (m *Manager) TakeRequestID(r *http.Request, w http.ResponseWriter) string {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		return ""
	}

	id, ok := session.Values[RequestIDKey].(string)
	if !ok {
		return ""
	}

	delete(session.Values, RequestIDKey)
	_ = session.Save(r, w)
	return id
}

// Clear removes the session (logout)
func (m *Manager) Clear(r *http.Request, w http.ResponseWriter) error {
	session, err := m.store.Get(r, m.cookieName)
	if err != nil {
		return nil // Session doesn't exist, nothing to clear
	}

	// Set MaxAge to -1 to delete the session
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
