package domain

import (
	"errors"
	"time"
)

// ErrEmptyName is returned when registering a user without a name.
var ErrEmptyName = errors.New("name is required")

// ErrEmptyEmail is returned when registering a user without an email.
var ErrEmptyEmail = errors.New("email is required")

// User is a registered account. Role is fixed at registration; the credential
// hash is opaque to this service (verification happens in the identity layer).
type User struct {
	id           UserID
	role         Role
	name         string
	email        string
	phone        string
	passwordHash string
	createdAt    time.Time
}

// NewUser creates a user pending persistence; the repository assigns the ID.
// The now parameter makes the function pure and testable.
func NewUser(role Role, name, email, phone, passwordHash string, now time.Time) (*User, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if email == "" {
		return nil, ErrEmptyEmail
	}
	return &User{
		role:         role,
		name:         name,
		email:        email,
		phone:        phone,
		passwordHash: passwordHash,
		createdAt:    now,
	}, nil
}

// ReconstructUser rehydrates a User from persisted state.
// It bypasses validation since the data is assumed valid from the database.
func ReconstructUser(id UserID, role Role, name, email, phone, passwordHash string, createdAt time.Time) *User {
	return &User{
		id:           id,
		role:         role,
		name:         name,
		email:        email,
		phone:        phone,
		passwordHash: passwordHash,
		createdAt:    createdAt,
	}
}

func (u *User) ID() UserID           { return u.id }
func (u *User) Role() Role           { return u.role }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) Phone() string        { return u.phone }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) CreatedAt() time.Time { return u.createdAt }
