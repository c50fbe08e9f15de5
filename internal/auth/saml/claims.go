// Package saml extracts a flat profile from an authenticated federation
// assertion. Protocol handling and signature verification are delegated
// to crewjam/saml; this package only reads the already-verified claims.
package saml

import (
	saml2 "github.com/crewjam/saml"
)

// Assertion attribute names commonly emitted by the upstream IdP.
const (
	AttrGivenName = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	AttrSurname   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	AttrEmail     = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	AttrSessionID = "http://saml2/sid"
)

// Profile is the flat record extracted from an assertion. Absent claims
// are modeled as empty strings, never as errors.
type Profile struct {
	// ExternalID is the stable subject identifier (NameID) supplied by
	// the IdP; it becomes the local username.
	ExternalID string

	// Email address asserted by the IdP
	Email string

	// FirstName is the given-name claim
	FirstName string

	// LastName is the surname claim
	LastName string

	// SessionID is the IdP session identifier, needed alongside the
	// NameID for federated logout
	SessionID string
}

// ExtractProfile pulls the profile record out of a verified assertion.
// It has no side effects and never fails.
func ExtractProfile(assertion *saml2.Assertion) Profile {
	var p Profile
	if assertion == nil {
		return p
	}

	if assertion.Subject != nil && assertion.Subject.NameID != nil {
		p.ExternalID = assertion.Subject.NameID.Value
	}

	p.FirstName = attributeValue(assertion, AttrGivenName, "givenname")
	p.LastName = attributeValue(assertion, AttrSurname, "surname")
	p.Email = attributeValue(assertion, AttrEmail, "emailaddress")

	p.SessionID = attributeValue(assertion, AttrSessionID, "sid")
	if p.SessionID == "" {
		for _, stmt := range assertion.AuthnStatements {
			if stmt.SessionIndex != "" {
				p.SessionID = stmt.SessionIndex
				break
			}
		}
	}

	return p
}

// attributeValue finds the first value for an attribute by full name or
// friendly name. IdPs disagree on which of the two they populate.
func attributeValue(assertion *saml2.Assertion, name, friendly string) string {
	for _, stmt := range assertion.AttributeStatements {
		for _, attr := range stmt.Attributes {
			if attr.Name != name && attr.FriendlyName != friendly {
				continue
			}
			for _, v := range attr.Values {
				if v.Value != "" {
					return v.Value
				}
			}
		}
	}
	return ""
}
