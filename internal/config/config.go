package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	Session      SessionConfig      `yaml:"session"`
	SAML         SAMLConfig         `yaml:"saml"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Authz        AuthzConfig        `yaml:"authorization"`
	Environment  string             `yaml:"environment" default:"local"` // local, dev, prod
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" default:"localhost"`
	Port int    `yaml:"port" default:"8080"`
	// RootURL is the externally visible base URL of this service. It is
	// what gets stamped into SAML metadata, so it must match whatever
	// the identity provider was configured with.
	RootURL string `yaml:"root_url" default:"http://localhost:8080"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	Database string `yaml:"database" default:"gatehouse"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode" default:"disable"` // disable, require, verify-ca, verify-full
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	// SigningKey signs the principal tokens embedded in the session
	// cookie. Required in non-local environments.
	SigningKey string        `yaml:"signing_key"`
	CookieName string        `yaml:"cookie_name" default:"gatehouse_session"`
	Lifetime   time.Duration `yaml:"lifetime" default:"12h"`
	Secure     bool          `yaml:"secure"` // require HTTPS for the cookie
}

// SAMLConfig holds the service-provider side of the SAML federation
type SAMLConfig struct {
	// Provider is the login_provider name recorded against external
	// login linkages. Changing it orphans existing linkages.
	Provider        string `yaml:"provider" default:"saml"`
	IDPMetadataURL  string `yaml:"idp_metadata_url"`
	IDPMetadataFile string `yaml:"idp_metadata_file"` // alternative to the URL for air-gapped setups
	CertificateFile string `yaml:"certificate_file"`
	KeyFile         string `yaml:"key_file"`
	EntityID        string `yaml:"entity_id"` // defaults to <root_url>/saml/metadata
}

// ProvisioningConfig controls how users federated in for the first
// time are materialized locally.
type ProvisioningConfig struct {
	// AutoEnableUsers skips the manual activation step. Intended for
	// local development only.
	AutoEnableUsers bool `yaml:"auto_enable_users"`
	// AttachSessionClaimOnFailure records the provider session id even
	// when sign-in is refused, so a federated logout can still find
	// the session later.
	AttachSessionClaimOnFailure bool `yaml:"attach_session_claim_on_failure" default:"true"`
}

// AuthzConfig holds authorization settings for the admin screens
type AuthzConfig struct {
	// AdminRole is the role name required to reach /admin
	AdminRole string `yaml:"admin_role" default:"Administrators"`
}

// ConnectionString returns the PostgreSQL connection string
func (p *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}
