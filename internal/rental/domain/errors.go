package domain

import "errors"

// Domain errors for the Rental context.
var (
	// ErrUnauthenticated is returned when no identity accompanies a request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRoleMismatch is returned when the actor's role does not match the required role.
	ErrRoleMismatch = errors.New("role mismatch")

	// ErrForbidden is returned when the actor does not own the target entity.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrPropertyNotFound is returned when a property cannot be found.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrRoomNotFound is returned when a room cannot be found.
	ErrRoomNotFound = errors.New("room not found")

	// ErrBookingNotFound is returned when a booking cannot be found.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidTransition is returned when a booking state transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRoomFull is returned when approving a booking would exceed the room's bed capacity.
	ErrRoomFull = errors.New("room at bed capacity")

	// ErrEmailTaken is returned when registering a user with an already registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrOptimisticLock is returned when an optimistic lock conflict occurs.
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrStoreUnavailable is returned when the persistence layer is unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCorruptData is returned when data loaded from persistence is invalid.
	ErrCorruptData = errors.New("corrupt data in database")
)
