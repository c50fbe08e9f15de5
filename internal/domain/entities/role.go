package entities

import "time"

// Role is a named group. NormalizedName is the stable lookup key derived
// from the display name; it is unique across roles.
type Role struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// RoleUsers is the role-centric projection: every known user appears in
// exactly one of Members or NonMembers.
type RoleUsers struct {
	Role       *Role   `json:"role"`
	Members    []*User `json:"members"`
	NonMembers []*User `json:"non_members"`
}

// UserRoles is the user-centric projection: every known role appears in
// exactly one of MemberRoles or NonMemberRoles.
type UserRoles struct {
	User           *User   `json:"user"`
	MemberRoles    []*Role `json:"member_roles"`
	NonMemberRoles []*Role `json:"non_member_roles"`
}

// UserDetails is the detail projection for a single user.
type UserDetails struct {
	User        *User    `json:"user"`
	MemberRoles []string `json:"member_roles"`
}
