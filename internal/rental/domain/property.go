package domain

import (
	"errors"
	"time"
)

// ErrEmptyAddress is returned when adding a property without an address.
var ErrEmptyAddress = errors.New("address is required")

// Property is a listed building owned by exactly one owner. The owner is
// fixed at creation; properties are never reassigned.
type Property struct {
	id          PropertyID
	ownerID     UserID
	name        string
	address     string
	city        string
	pincode     string
	description string
	createdAt   time.Time
}

// NewProperty creates a property pending persistence; the repository assigns the ID.
func NewProperty(ownerID UserID, name, address, city, pincode, description string, now time.Time) (*Property, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if address == "" {
		return nil, ErrEmptyAddress
	}
	return &Property{
		ownerID:     ownerID,
		name:        name,
		address:     address,
		city:        city,
		pincode:     pincode,
		description: description,
		createdAt:   now,
	}, nil
}

// ReconstructProperty rehydrates a Property from persisted state.
func ReconstructProperty(id PropertyID, ownerID UserID, name, address, city, pincode, description string, createdAt time.Time) *Property {
	return &Property{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		address:     address,
		city:        city,
		pincode:     pincode,
		description: description,
		createdAt:   createdAt,
	}
}

func (p *Property) ID() PropertyID       { return p.id }
func (p *Property) OwnerID() UserID      { return p.ownerID }
func (p *Property) Name() string         { return p.name }
func (p *Property) Address() string      { return p.address }
func (p *Property) City() string         { return p.city }
func (p *Property) Pincode() string      { return p.pincode }
func (p *Property) Description() string  { return p.description }
func (p *Property) CreatedAt() time.Time { return p.createdAt }
