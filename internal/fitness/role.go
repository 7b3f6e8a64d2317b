package fitness

import "fmt"

// Role is a closed set. Consumers switch over it exhaustively, so a new
// role shows up as a compile/lint problem instead of an empty view.
type Role string

const (
	RolePWD       Role = "PWD"
	RoleTherapist Role = "THERAPIST"
	RoleCaregiver Role = "CAREGIVER"
	RoleAdmin     Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePWD, RoleTherapist, RoleCaregiver, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// ManagesPatients reports whether the role loads the patients collection
// for its dashboard.
func (r Role) ManagesPatients() bool {
	switch r {
	case RoleTherapist, RoleCaregiver, RoleAdmin:
		return true
	case RolePWD:
		return false
	default:
		return false
	}
}
