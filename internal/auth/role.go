package auth

import "strings"

// Role is a user role. Roles form a fixed total order used for threshold
// checks: User < Manager < Administrator.
type Role string

const (
	RoleUser          Role = "User"
	RoleManager       Role = "Manager"
	RoleAdministrator Role = "Administrator"
)

var roleRanks = map[Role]int{
	RoleUser:          0,
	RoleManager:       1,
	RoleAdministrator: 2,
}

// Roles lists every known role from lowest to highest rank.
func Roles() []Role {
	return []Role{RoleUser, RoleManager, RoleAdministrator}
}

// ParseRole matches raw against the known roles after trimming surrounding
// whitespace. Case must match exactly.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.TrimSpace(raw))
	if _, ok := roleRanks[role]; !ok {
		return "", false
	}
	return role, true
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the position of r in the hierarchy, or -1 for an unknown role.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// Satisfies reports whether a holder of r may access a resource that requires
// at least required. Unknown roles satisfy nothing and are satisfied by nothing.
func (r Role) Satisfies(required Role) bool {
	held, need := r.Rank(), required.Rank()
	if held < 0 || need < 0 {
		return false
	}
	return held >= need
}

func (r Role) String() string {
	return string(r)
}
