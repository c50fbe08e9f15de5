package saml

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"os"

	saml2 "github.com/crewjam/saml"
	"github.com/crewjam/saml/samlsp"
)

// ServiceProviderOptions configures the local SAML service provider
type ServiceProviderOptions struct {
	// EntityID identifies this SP to the identity provider. Empty means
	// the metadata URL is used.
	EntityID string

	// RootURL is the externally visible base URL of the web service
	RootURL string

	// CertificateFile and KeyFile hold the SP signing keypair (PEM)
	CertificateFile string
	KeyFile         string

	// IDPMetadataURL or IDPMetadataFile provides the identity provider
	// descriptor. Exactly one should be set.
	IDPMetadataURL  string
	IDPMetadataFile string
}

// NewServiceProvider builds a configured service provider: keypair
// loaded, IdP metadata resolved, ACS and metadata endpoints derived
// from the root URL.
func NewServiceProvider(ctx context.Context, opts ServiceProviderOptions) (*saml2.ServiceProvider, error) {
	keyPair, err := tls.LoadX509KeyPair(opts.CertificateFile, opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load SP keypair: %w", err)
	}
	cert, err := x509.ParseCertificate(keyPair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse SP certificate: %w", err)
	}
	key, ok := keyPair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("SP key must be RSA, got %T", keyPair.PrivateKey)
	}

	idpMetadata, err := resolveIDPMetadata(ctx, opts)
	if err != nil {
		return nil, err
	}

	rootURL, err := url.Parse(opts.RootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL: %w", err)
	}

	sp := &saml2.ServiceProvider{
		EntityID:          opts.EntityID,
		Key:               key,
		Certificate:       cert,
		MetadataURL:       *rootURL.JoinPath("/saml/metadata"),
		AcsURL:            *rootURL.JoinPath("/saml/acs"),
		SloURL:            *rootURL.JoinPath("/saml/slo"),
		IDPMetadata:       idpMetadata,
		AuthnNameIDFormat: saml2.PersistentNameIDFormat,
		AllowIDPInitiated: true,
	}
	return sp, nil
}

func resolveIDPMetadata(ctx context.Context, opts ServiceProviderOptions) (*saml2.EntityDescriptor, error) {
	switch {
	case opts.IDPMetadataFile != "":
		data, err := os.ReadFile(opts.IDPMetadataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read IdP metadata file: %w", err)
		}
		metadata, err := samlsp.ParseMetadata(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse IdP metadata: %w", err)
		}
		return metadata, nil

	case opts.IDPMetadataURL != "":
		metadataURL, err := url.Parse(opts.IDPMetadataURL)
		if err != nil {
			return nil, fmt.Errorf("invalid IdP metadata URL: %w", err)
		}
		metadata, err := samlsp.FetchMetadata(ctx, http.DefaultClient, *metadataURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch IdP metadata: %w", err)
		}
		return metadata, nil

	default:
		return nil, fmt.Errorf("no IdP metadata source configured")
	}
}
