package models

import "fmt"

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleShelter   Role = "shelter"
	RoleAdmin     Role = "admin"
	// RoleSystem is used for automatic transitions raised by the process engine.
	RoleSystem Role = "system"
)

// ParseRole accepts applicant, shelter, admin or system.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleApplicant, RoleShelter, RoleAdmin, RoleSystem:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Role, a.ID)
}
