package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	// RoleStudent can browse the catalog, request bookings, and pay rent.
	RoleStudent Role = "student"
	// RoleOwner can manage properties and drive booking transitions.
	RoleOwner Role = "owner"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleOwner:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrRoleMismatch, s)
	}
}

// Identity is the authenticated caller, produced by the external identity
// layer and passed explicitly into every operation. The core never reads
// ambient session state.
type Identity struct {
	UserID UserID
	Role   Role
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i.UserID == 0 && i.Role == ""
}

// Authorize checks that an identity is present and carries the required role.
// It is a pure check with no side effects; callers must not mutate state when
// it returns an error.
func Authorize(identity Identity, required Role) error {
	if identity.IsZero() {
		return ErrUnauthenticated
	}
	if identity.Role != required {
		return ErrRoleMismatch
	}
	return nil
}

// AuthorizeOwnership checks role and that the target entity's owning user is
// the caller. Used for property/room mutation, booking transitions by owners,
// and booking/payment access by students.
func AuthorizeOwnership(identity Identity, required Role, owner UserID) error {
	if err := Authorize(identity, required); err != nil {
		return err
	}
	if identity.UserID != owner {
		return ErrForbidden
	}
	return nil
}
