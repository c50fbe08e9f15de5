package render

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
)

// Helper to get the path to templates from the test package directory
// Tests run from: <project>/web/internal/render
// Templates are at: <project>/web/templates
func getTestTemplatesPath() string {
	return filepath.Join("..", "..", "templates")
}

func TestLoadTemplates(t *testing.T) {
	ts, err := LoadTemplates(getTestTemplatesPath())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	if ts == nil {
		t.Fatal("Expected templates to be loaded, got nil")
	}

	// Check for required page templates
	requiredTemplates := []string{
		"home.html",
		"login.html",
		"users.html",
		"user.html",
		"roles.html",
		"role.html",
		"claims.html",
		"error.html",
		"pending.html",
	}

	for _, required := range requiredTemplates {
		if !ts.Has(required) {
			t.Errorf("Expected template %q to be loaded, but it wasn't found", required)
		}
	}
}

func TestExecuteMissingTemplate(t *testing.T) {
	ts, err := LoadTemplates(getTestTemplatesPath())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	var buf bytes.Buffer
	if err := ts.Execute(&buf, "nope.html", nil); err == nil {
		t.Error("Expected error executing unknown template, got nil")
	}
}

func TestExecuteRolesPage(t *testing.T) {
	ts, err := LoadTemplates(getTestTemplatesPath())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	data := struct {
		Principal interface{}
		Error     string
		Notice    string
		Roles     []*entities.Role
	}{
		Roles: []*entities.Role{
			{ID: "1", Name: "Site Admins", NormalizedName: "site-admins"},
		},
	}

	var buf bytes.Buffer
	if err := ts.Execute(&buf, "roles.html", data); err != nil {
		t.Fatalf("Execute(roles.html) error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Site Admins") {
		t.Error("rendered page missing role name")
	}
	if !strings.Contains(out, "site-admins") {
		t.Error("rendered page missing normalized name")
	}
}

func TestTemplateIsolation(t *testing.T) {
	// Each page parses into its own template set, so identical block
	// names across pages must not collide
	ts, err := LoadTemplates(getTestTemplatesPath())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	var home, login bytes.Buffer
	if err := ts.Execute(&home, "home.html", struct {
		Principal interface{}
		Error     string
		Notice    string
	}{}); err != nil {
		t.Fatalf("Execute(home.html) error = %v", err)
	}
	if err := ts.Execute(&login, "login.html", struct {
		Principal interface{}
		Error     string
		Notice    string
		ReturnURL string
	}{}); err != nil {
		t.Fatalf("Execute(login.html) error = %v", err)
	}

	if home.String() == login.String() {
		t.Error("home and login rendered identically, content blocks collided")
	}
}
