package domain

import (
	"errors"
	"time"

	"hostelhub/internal/common/types"
)

// ErrInvalidCapacity is returned when a room is created with a non-positive bed capacity.
var ErrInvalidCapacity = errors.New("bed capacity must be positive")

// ErrInvalidRent is returned when a room is created with a non-positive rent.
var ErrInvalidRent = errors.New("rent must be positive")

// Room belongs to a property and is booked by capacity, not by calendar.
// Occupancy is derived: the count of approved/checked_in bookings on the room
// must never exceed bedCapacity (enforced when a booking is approved).
type Room struct {
	id          RoomID
	propertyID  PropertyID
	roomNo      string
	roomType    string
	bedCapacity int
	rent        types.Money
	deposit     types.Money
	sharing     int
	createdAt   time.Time
}

// NewRoom creates a room pending persistence; the repository assigns the ID.
func NewRoom(propertyID PropertyID, roomNo, roomType string, bedCapacity int, rent, deposit types.Money, sharing int, now time.Time) (*Room, error) {
	if bedCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if !rent.IsPositive() {
		return nil, ErrInvalidRent
	}
	return &Room{
		propertyID:  propertyID,
		roomNo:      roomNo,
		roomType:    roomType,
		bedCapacity: bedCapacity,
		rent:        rent,
		deposit:     deposit,
		sharing:     sharing,
		createdAt:   now,
	}, nil
}

// ReconstructRoom rehydrates a Room from persisted state.
func ReconstructRoom(id RoomID, propertyID PropertyID, roomNo, roomType string, bedCapacity int, rent, deposit types.Money, sharing int, createdAt time.Time) *Room {
	return &Room{
		id:          id,
		propertyID:  propertyID,
		roomNo:      roomNo,
		roomType:    roomType,
		bedCapacity: bedCapacity,
		rent:        rent,
		deposit:     deposit,
		sharing:     sharing,
		createdAt:   createdAt,
	}
}

// HasCapacityFor reports whether one more active booking fits the room.
func (r *Room) HasCapacityFor(activeBookings int) bool {
	return activeBookings < r.bedCapacity
}

func (r *Room) ID() RoomID             { return r.id }
func (r *Room) PropertyID() PropertyID { return r.propertyID }
func (r *Room) RoomNo() string         { return r.roomNo }
func (r *Room) RoomType() string       { return r.roomType }
func (r *Room) BedCapacity() int       { return r.bedCapacity }
func (r *Room) Rent() types.Money      { return r.rent }
func (r *Room) Deposit() types.Money   { return r.deposit }
func (r *Room) Sharing() int           { return r.sharing }
func (r *Room) CreatedAt() time.Time   { return r.createdAt }
