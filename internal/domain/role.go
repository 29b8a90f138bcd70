package domain

import "fmt"

// TeamRole is a member's role within a team. RoleNone is only valid inside
// mutation payloads, where it means "remove"; it must never appear in a
// materialized membership map.
type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleWriter TeamRole = "writer"
	RoleReader TeamRole = "reader"
	RoleNone   TeamRole = "none"
)

// ParseTeamRole decodes a role string from the wire. Unknown values are an
// error, never coerced.
func ParseTeamRole(s string) (TeamRole, error) {
	switch TeamRole(s) {
	case RoleOwner, RoleAdmin, RoleWriter, RoleReader, RoleNone:
		return TeamRole(s), nil
	}
	return "", fmt.Errorf("unknown team role %q", s)
}
