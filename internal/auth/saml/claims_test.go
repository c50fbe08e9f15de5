package saml

import (
	"testing"

	saml2 "github.com/crewjam/saml"
)

func assertionWith(nameID string, attrs map[string]string, sessionIndex string) *saml2.Assertion {
	assertion := &saml2.Assertion{}
	if nameID != "" {
		assertion.Subject = &saml2.Subject{
			NameID: &saml2.NameID{Value: nameID},
		}
	}
	if len(attrs) > 0 {
		stmt := saml2.AttributeStatement{}
		for name, value := range attrs {
			stmt.Attributes = append(stmt.Attributes, saml2.Attribute{
				Name:   name,
				Values: []saml2.AttributeValue{{Value: value}},
			})
		}
		assertion.AttributeStatements = []saml2.AttributeStatement{stmt}
	}
	if sessionIndex != "" {
		assertion.AuthnStatements = []saml2.AuthnStatement{{SessionIndex: sessionIndex}}
	}
	return assertion
}

func TestExtractProfile(t *testing.T) {
	tests := []struct {
		name      string
		assertion *saml2.Assertion
		want      Profile
	}{
		{
			name: "full assertion",
			assertion: assertionWith("alice", map[string]string{
				AttrGivenName: "Alice",
				AttrSurname:   "Archer",
				AttrEmail:     "alice@example.com",
				AttrSessionID: "sid-1",
			}, ""),
			want: Profile{
				ExternalID: "alice",
				FirstName:  "Alice",
				LastName:   "Archer",
				Email:      "alice@example.com",
				SessionID:  "sid-1",
			},
		},
		{
			name:      "absent claims become empty strings",
			assertion: assertionWith("alice", nil, ""),
			want:      Profile{ExternalID: "alice"},
		},
		{
			name:      "nil assertion",
			assertion: nil,
			want:      Profile{},
		},
		{
			name:      "session index fallback",
			assertion: assertionWith("alice", nil, "idx-9"),
			want:      Profile{ExternalID: "alice", SessionID: "idx-9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractProfile(tt.assertion); got != tt.want {
				t.Errorf("ExtractProfile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractProfileFriendlyName(t *testing.T) {
	assertion := &saml2.Assertion{
		Subject: &saml2.Subject{NameID: &saml2.NameID{Value: "carol"}},
		AttributeStatements: []saml2.AttributeStatement{{
			Attributes: []saml2.Attribute{
				{FriendlyName: "givenname", Values: []saml2.AttributeValue{{Value: "Carol"}}},
				{FriendlyName: "emailaddress", Values: []saml2.AttributeValue{{Value: "carol@example.com"}}},
			},
		}},
	}

	got := ExtractProfile(assertion)
	if got.FirstName != "Carol" {
		t.Errorf("expected first name Carol, got %q", got.FirstName)
	}
	if got.Email != "carol@example.com" {
		t.Errorf("expected email carol@example.com, got %q", got.Email)
	}
}
