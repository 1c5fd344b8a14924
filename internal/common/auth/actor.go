// internal/common/auth/actor.go
package auth

import (
	"fmt"
	"strings"

	"deal-workers/internal/common/errors"
)

// Role is the caller's permission level, supplied by the identity provider
// and carried on every job as actorRole.
type Role string

const (
	RoleSeller  Role = "seller"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleSeller:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ParseRole accepts any casing of a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string `json:"actorId"`
	Role Role   `json:"actorRole"`
}

// NewActor validates raw job variables into an Actor.
func NewActor(id, role string) (Actor, error) {
	if strings.TrimSpace(id) == "" {
		return Actor{}, errors.NewNotAuthorizedError("actorId is required")
	}
	r, err := ParseRole(role)
	if err != nil {
		return Actor{}, errors.NewNotAuthorizedError(err.Error())
	}
	return Actor{ID: id, Role: r}, nil
}

func (a Actor) atLeast(r Role) bool {
	return roleRank[a.Role] >= roleRank[r]
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsManager is true for managers and admins.
func (a Actor) IsManager() bool { return a.atLeast(RoleManager) }

// Owns reports whether the actor is the record owner.
func (a Actor) Owns(ownerID string) bool { return a.ID != "" && a.ID == ownerID }

// RequireOwnerOrAdmin guards mutations of a seller's own deals.
func (a Actor) RequireOwnerOrAdmin(ownerID string) error {
	if a.Owns(ownerID) || a.IsAdmin() {
		return nil
	}
	return errors.NewNotAuthorizedError(fmt.Sprintf("actor %s cannot modify records of %s", a.ID, ownerID))
}

// RequireManager guards manager-only operations such as pay type assignment.
func (a Actor) RequireManager() error {
	if a.IsManager() {
		return nil
	}
	return errors.NewNotAuthorizedError(fmt.Sprintf("actor %s with role %s is not a manager", a.ID, a.Role))
}

// RequireAdmin guards company-wide reads.
func (a Actor) RequireAdmin() error {
	if a.IsAdmin() {
		return nil
	}
	return errors.NewNotAuthorizedError(fmt.Sprintf("actor %s with role %s is not an admin", a.ID, a.Role))
}
