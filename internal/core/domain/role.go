package domain

import "strings"

// Role is the privilege level attached to an identity through its profile.
type Role string

const (
	RoleSuperAdmin Role = "SUPER-ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleModerator  Role = "MODERATOR"
	RoleUser       Role = "USER"
	RoleGuest      Role = "GUEST"
)

// roleRank orders the hierarchy. Higher rank satisfies every lower predicate.
var roleRank = map[Role]int{
	RoleGuest:      0,
	RoleUser:       1,
	RoleModerator:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Roles lists every role from most to least privileged.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleModerator, RoleUser, RoleGuest}
}

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

// Valid reports whether r is part of the hierarchy.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is min or above it. Unknown roles rank as GUEST.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

func (r Role) String() string { return string(r) }
