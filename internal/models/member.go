package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is an organization member's role. Roles are totally ordered by
// privilege: owner > admin > analyst > viewer.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

var roleRanks = map[Role]int{
	RoleOwner:   4,
	RoleAdmin:   3,
	RoleAnalyst: 2,
	RoleViewer:  1,
}

// Rank returns the privilege rank of the role. Unknown roles rank 0,
// below viewer.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// CanManage reports whether an actor with role r may add, modify or remove
// a member holding target. The target must rank strictly below the actor;
// owner-on-owner actions are handled separately by the service layer.
func (r Role) CanManage(target Role) bool {
	return r.Rank() > target.Rank()
}

type Member struct {
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
