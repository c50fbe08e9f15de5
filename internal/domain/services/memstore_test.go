package services

import (
	"context"
	"sync"
	"time"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
	"github.com/ferndale-labs/gatehouse/internal/domain/repositories"
)

// memStore is an in-memory identity store used as a spy in workflow
// tests. Calls are counted per method, and failures can be injected per
// method or per method:id.
type memStore struct {
	mu sync.Mutex

	users       map[string]*entities.User
	userOrder   []string
	logins      map[string]string // provider + "|" + key -> user id
	claims      map[string][]entities.Claim
	roles       map[string]*entities.Role
	roleOrder   []string
	memberships map[string]map[string]bool // user id -> role id -> member

	calls  map[string]int
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*entities.User),
		logins:      make(map[string]string),
		claims:      make(map[string][]entities.Claim),
		roles:       make(map[string]*entities.Role),
		memberships: make(map[string]map[string]bool),
		calls:       make(map[string]int),
		failOn:      make(map[string]error),
	}
}

// memRoles adapts memStore to the RoleStore interface; the method names
// collide with UserStore otherwise.
type memRoles struct{ *memStore }

func (m memRoles) Create(ctx context.Context, role *entities.Role) error {
	return m.memStore.CreateRole(ctx, role)
}

func (m memRoles) GetByID(ctx context.Context, id string) (*entities.Role, error) {
	return m.memStore.GetRoleByID(ctx, id)
}

func (m memRoles) Delete(ctx context.Context, id string) error {
	return m.memStore.DeleteRole(ctx, id)
}

func (m memRoles) List(ctx context.Context) ([]*entities.Role, error) {
	return m.memStore.ListRoles(ctx)
}

var (
	_ repositories.UserStore       = (*memStore)(nil)
	_ repositories.RoleStore       = memRoles{}
	_ repositories.MembershipStore = (*memStore)(nil)
)

// enter records the call and returns any injected failure.
func (m *memStore) enter(method string, ids ...string) error {
	m.calls[method]++
	if err, ok := m.failOn[method]; ok {
		return err
	}
	for _, id := range ids {
		if err, ok := m.failOn[method+":"+id]; ok {
			return err
		}
	}
	return nil
}

func (m *memStore) Create(_ context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return err
	}
	if user.Username == "" {
		return repositories.ErrInvalidUsername
	}
	cp := *user
	m.users[user.ID] = &cp
	m.userOrder = append(m.userOrder, user.ID)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByID", id); err != nil {
		return nil, err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *memStore) GetByExternalLogin(_ context.Context, provider, key string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByExternalLogin"); err != nil {
		return nil, err
	}
	id, ok := m.logins[provider+"|"+key]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Update", user.ID); err != nil {
		return err
	}
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, userID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateLastLogin", userID); err != nil {
		return err
	}
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.LastLoginTime = &t
	return nil
}

func (m *memStore) AddClaims(_ context.Context, userID string, claims []entities.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("AddClaims", userID); err != nil {
		return err
	}
	for _, c := range claims {
		if !m.hasClaim(userID, c) {
			m.claims[userID] = append(m.claims[userID], c)
		}
	}
	return nil
}

func (m *memStore) hasClaim(userID string, claim entities.Claim) bool {
	for _, c := range m.claims[userID] {
		if c == claim {
			return true
		}
	}
	return false
}

func (m *memStore) ListClaims(_ context.Context, userID string) ([]entities.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListClaims", userID); err != nil {
		return nil, err
	}
	return append([]entities.Claim(nil), m.claims[userID]...), nil
}

func (m *memStore) AddLogin(_ context.Context, login *entities.ExternalLogin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("AddLogin", login.UserID); err != nil {
		return err
	}
	m.logins[login.Provider+"|"+login.ProviderKey] = login.UserID
	return nil
}

func (m *memStore) List(_ context.Context) ([]*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("List"); err != nil {
		return nil, err
	}
	users := make([]*entities.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		cp := *m.users[id]
		users = append(users, &cp)
	}
	return users, nil
}

// RoleStore

func (m *memStore) CreateRole(ctx context.Context, role *entities.Role) error {
	return m.createRole(role)
}

func (m *memStore) createRole(role *entities.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateRole"); err != nil {
		return err
	}
	for _, existing := range m.roles {
		if existing.NormalizedName == role.NormalizedName {
			return repositories.ErrDuplicateRole
		}
	}
	cp := *role
	m.roles[role.ID] = &cp
	m.roleOrder = append(m.roleOrder, role.ID)
	return nil
}

func (m *memStore) GetRoleByID(_ context.Context, id string) (*entities.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetRoleByID", id); err != nil {
		return nil, err
	}
	role, ok := m.roles[id]
	if !ok {
		return nil, repositories.ErrRoleNotFound
	}
	cp := *role
	return &cp, nil
}

func (m *memStore) GetByNormalizedName(_ context.Context, normalized string) (*entities.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByNormalizedName"); err != nil {
		return nil, err
	}
	for _, role := range m.roles {
		if role.NormalizedName == normalized {
			cp := *role
			return &cp, nil
		}
	}
	return nil, repositories.ErrRoleNotFound
}

func (m *memStore) DeleteRole(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteRole", id); err != nil {
		return err
	}
	if _, ok := m.roles[id]; !ok {
		return repositories.ErrRoleNotFound
	}
	delete(m.roles, id)
	for i, rid := range m.roleOrder {
		if rid == id {
			m.roleOrder = append(m.roleOrder[:i], m.roleOrder[i+1:]...)
			break
		}
	}
	for _, roles := range m.memberships {
		delete(roles, id)
	}
	return nil
}

func (m *memStore) ListRoles(_ context.Context) ([]*entities.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListRoles"); err != nil {
		return nil, err
	}
	roles := make([]*entities.Role, 0, len(m.roleOrder))
	for _, id := range m.roleOrder {
		cp := *m.roles[id]
		roles = append(roles, &cp)
	}
	return roles, nil
}

// MembershipStore

func (m *memStore) AddUserToRole(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("AddUserToRole", userID, roleID); err != nil {
		return err
	}
	if m.memberships[userID] == nil {
		m.memberships[userID] = make(map[string]bool)
	}
	m.memberships[userID][roleID] = true
	return nil
}

func (m *memStore) RemoveUserFromRole(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RemoveUserFromRole", userID, roleID); err != nil {
		return err
	}
	delete(m.memberships[userID], roleID)
	return nil
}

func (m *memStore) IsUserInRole(_ context.Context, userID, roleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("IsUserInRole"); err != nil {
		return false, err
	}
	return m.memberships[userID][roleID], nil
}

func (m *memStore) RoleNamesForUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RoleNamesForUser", userID); err != nil {
		return nil, err
	}
	var names []string
	for _, id := range m.roleOrder {
		if m.memberships[userID][id] {
			names = append(names, m.roles[id].Name)
		}
	}
	return names, nil
}

// seedUser inserts a user directly, bypassing call counting.
func (m *memStore) seedUser(user *entities.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	m.userOrder = append(m.userOrder, user.ID)
}

// seedLogin links a provider key directly.
func (m *memStore) seedLogin(provider, key, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[provider+"|"+key] = userID
}

// seedRole inserts a role directly.
func (m *memStore) seedRole(role *entities.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *role
	m.roles[role.ID] = &cp
	m.roleOrder = append(m.roleOrder, role.ID)
}

// recordedSignIn captures session-establishment calls.
type recordedSignIn struct {
	calls  int
	user   *entities.User
	props  SignInProperties
	claims []entities.Claim
	err    error
}

func (r *recordedSignIn) SignIn(_ context.Context, user *entities.User, props SignInProperties, extra []entities.Claim) error {
	r.calls++
	r.user = user
	r.props = props
	r.claims = extra
	return r.err
}
