package domain

import "fmt"

// Role is the single source of truth for the integer role ids carried in
// tokens and stored on profiles.
type Role int

const (
	RoleParticipant Role = 1
	RoleTempleAdmin Role = 2
	RoleStaff       Role = 3
	RoleSuperUser   Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleParticipant:
		return "PARTICIPANT"
	case RoleTempleAdmin:
		return "TEMPLE_ADMIN"
	case RoleStaff:
		return "STAFF"
	case RoleSuperUser:
		return "SUPER_USER"
	default:
		return fmt.Sprintf("ROLE(%d)", int(r))
	}
}

func (r Role) Valid() bool {
	return r >= RoleParticipant && r <= RoleSuperUser
}

// ParseRole converts a raw role id into a Role.
func ParseRole(v int) (Role, error) {
	r := Role(v)
	if !r.Valid() {
		return 0, fmt.Errorf("unknown role id %d", v)
	}
	return r, nil
}

// Principal is the decoded caller identity handed over by the token verifier.
// The engine trusts it as-is.
type Principal struct {
	ID       int64  `json:"id"`
	Role     Role   `json:"role"`
	TempleID *int64 `json:"temple_id,omitempty"`
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
