package types

import "github.com/google/uuid"

// Role is the caller's role as established by the (out of scope) gateway.
type Role string

// Actor roles.
const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// Actor identifies the authenticated caller of a core operation. It is passed
// by value into every entry point; the core never reads session state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor may call admin operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
