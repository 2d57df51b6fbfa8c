package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidID is returned when parsing a malformed or non-positive entity ID.
var ErrInvalidID = errors.New("invalid id")

// Entity identifiers are database-assigned sequences. They are distinct types
// to prevent accidental cross-entity confusion at compile time. Payment
// recency relies on the sequence ordering: a higher PaymentID is a more
// recently created payment.
type (
	UserID     int64
	PropertyID int64
	RoomID     int64
	BookingID  int64
	PaymentID  int64
)

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, v)
	}
	return v, nil
}

// ParseUserID creates a UserID from its decimal string form.
func ParseUserID(s string) (UserID, error) {
	v, err := parseID(s)
	return UserID(v), err
}

// ParsePropertyID creates a PropertyID from its decimal string form.
func ParsePropertyID(s string) (PropertyID, error) {
	v, err := parseID(s)
	return PropertyID(v), err
}

// ParseRoomID creates a RoomID from its decimal string form.
func ParseRoomID(s string) (RoomID, error) {
	v, err := parseID(s)
	return RoomID(v), err
}

// ParseBookingID creates a BookingID from its decimal string form.
func ParseBookingID(s string) (BookingID, error) {
	v, err := parseID(s)
	return BookingID(v), err
}

func (id UserID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id PropertyID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RoomID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id BookingID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id PaymentID) String() string  { return strconv.FormatInt(int64(id), 10) }

func (id UserID) IsZero() bool    { return id == 0 }
func (id BookingID) IsZero() bool { return id == 0 }
func (id PaymentID) IsZero() bool { return id == 0 }
