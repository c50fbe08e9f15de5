package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
	"github.com/ferndale-labs/gatehouse/internal/domain/validation"
)

func newTestDirectory() (*memStore, *Directory) {
	store := newMemStore()
	return store, NewDirectory(store, memRoles{store}, store, nil)
}

func seedDirectory(store *memStore) {
	store.seedUser(&entities.User{ID: "u1", Username: "alice"})
	store.seedUser(&entities.User{ID: "u2", Username: "bob"})
	store.seedUser(&entities.User{ID: "u3", Username: "carol"})
	store.seedRole(&entities.Role{ID: "r1", Name: "Auditors", NormalizedName: "auditors"})
	store.seedRole(&entities.Role{ID: "r2", Name: "Operators", NormalizedName: "operators"})
	_ = store.AddUserToRole(context.Background(), "u1", "r1")
	_ = store.AddUserToRole(context.Background(), "u3", "r1")
	_ = store.AddUserToRole(context.Background(), "u1", "r2")
}

func TestDirectory_RoleUsersPartition(t *testing.T) {
	store, dir := newTestDirectory()
	seedDirectory(store)

	result, err := dir.RoleUsers(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members := usernames(result.Members)
	nonMembers := usernames(result.NonMembers)
	if !reflect.DeepEqual(members, []string{"alice", "carol"}) {
		t.Errorf("expected members [alice carol], got %v", members)
	}
	if !reflect.DeepEqual(nonMembers, []string{"bob"}) {
		t.Errorf("expected non-members [bob], got %v", nonMembers)
	}
	// Union is the full user set, intersection empty.
	if len(result.Members)+len(result.NonMembers) != 3 {
		t.Errorf("expected the partition to cover all users")
	}
	for _, m := range result.Members {
		for _, n := range result.NonMembers {
			if m.ID == n.ID {
				t.Errorf("user %s appears in both partitions", m.ID)
			}
		}
	}
}

func TestDirectory_RoleUsersUnknownRole(t *testing.T) {
	_, dir := newTestDirectory()

	_, err := dir.RoleUsers(context.Background(), "missing")
	if !errors.Is(err, repositories.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestDirectory_RoleUsersBlankID(t *testing.T) {
	store, dir := newTestDirectory()

	_, err := dir.RoleUsers(context.Background(), "")
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("expected the store to be untouched, got calls %v", store.calls)
	}
}

func TestDirectory_UserRolesPartition(t *testing.T) {
	store, dir := newTestDirectory()
	seedDirectory(store)

	result, err := dir.UserRoles(context.Background(), "u3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := roleNames(result.MemberRoles); !reflect.DeepEqual(got, []string{"Auditors"}) {
		t.Errorf("expected member roles [Auditors], got %v", got)
	}
	if got := roleNames(result.NonMemberRoles); !reflect.DeepEqual(got, []string{"Operators"}) {
		t.Errorf("expected non-member roles [Operators], got %v", got)
	}
}

func TestDirectory_UserRolesUnknownUser(t *testing.T) {
	_, dir := newTestDirectory()

	_, err := dir.UserRoles(context.Background(), "missing")
	if !errors.Is(err, repositories.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDirectory_UserDetails(t *testing.T) {
	store, dir := newTestDirectory()
	seedDirectory(store)

	details, err := dir.UserDetails(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.User.Username != "alice" {
		t.Errorf("expected alice, got %s", details.User.Username)
	}
	if !reflect.DeepEqual(details.MemberRoles, []string{"Auditors", "Operators"}) {
		t.Errorf("expected roles [Auditors Operators], got %v", details.MemberRoles)
	}
}

func TestDirectory_UserDetailsUnknownUser(t *testing.T) {
	// The detail query signals absence with the same sentinel as the
	// partition queries.
	_, dir := newTestDirectory()

	_, err := dir.UserDetails(context.Background(), "missing")
	if !errors.Is(err, repositories.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func usernames(users []*entities.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func roleNames(roles []*entities.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
