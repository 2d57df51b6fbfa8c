package domain

import "time"

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusApproved   BookingStatus = "approved"
	BookingStatusRejected   BookingStatus = "rejected"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
)

// IsActive reports whether the booking occupies a bed
// (counts toward room occupancy).
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusApproved || s == BookingStatusCheckedIn
}

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCheckedOut
}

// Booking is a student's claim on a room (aggregate root).
// State machine: pending → {approved, rejected}; approved → checked_in;
// checked_in → checked_out. Status only moves forward; any transition from a
// non-matching source state fails with ErrInvalidTransition and mutates
// nothing. The student and the room/property pair are fixed at creation.
type Booking struct {
	id         BookingID
	roomID     RoomID
	propertyID PropertyID
	studentID  UserID
	startDate  time.Time
	endDate    *time.Time
	status     BookingStatus
	version    int
	createdAt  time.Time
	updatedAt  time.Time
}

// NewBooking creates a pending booking for a room. The propertyID is derived
// from the room by the caller so the room/property pair is consistent by
// construction. The repository assigns the ID on first save.
func NewBooking(roomID RoomID, propertyID PropertyID, studentID UserID, startDate time.Time, now time.Time) *Booking {
	return &Booking{
		roomID:     roomID,
		propertyID: propertyID,
		studentID:  studentID,
		startDate:  startDate,
		status:     BookingStatusPending,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ReconstructBooking rehydrates a Booking from persisted state.
// It bypasses business validation since the data is assumed valid from the database.
func ReconstructBooking(
	id BookingID,
	roomID RoomID,
	propertyID PropertyID,
	studentID UserID,
	startDate time.Time,
	endDate *time.Time,
	status BookingStatus,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		roomID:     roomID,
		propertyID: propertyID,
		studentID:  studentID,
		startDate:  startDate,
		endDate:    endDate,
		status:     status,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (b *Booking) transition(from, to BookingStatus, now time.Time) error {
	if b.status != from {
		return ErrInvalidTransition
	}
	b.status = to
	b.version++
	b.updatedAt = now
	return nil
}

// Approve moves a pending booking to approved.
func (b *Booking) Approve(now time.Time) error {
	return b.transition(BookingStatusPending, BookingStatusApproved, now)
}

// Reject moves a pending booking to rejected (terminal).
func (b *Booking) Reject(now time.Time) error {
	return b.transition(BookingStatusPending, BookingStatusRejected, now)
}

// CheckIn moves an approved booking to checked_in.
func (b *Booking) CheckIn(now time.Time) error {
	return b.transition(BookingStatusApproved, BookingStatusCheckedIn, now)
}

// CheckOut moves a checked_in booking to checked_out (terminal) and stamps
// the end date.
func (b *Booking) CheckOut(now time.Time) error {
	if err := b.transition(BookingStatusCheckedIn, BookingStatusCheckedOut, now); err != nil {
		return err
	}
	end := now
	b.endDate = &end
	return nil
}

func (b *Booking) ID() BookingID          { return b.id }
func (b *Booking) RoomID() RoomID         { return b.roomID }
func (b *Booking) PropertyID() PropertyID { return b.propertyID }
func (b *Booking) StudentID() UserID      { return b.studentID }
func (b *Booking) StartDate() time.Time   { return b.startDate }
func (b *Booking) EndDate() *time.Time    { return b.endDate }
func (b *Booking) Status() BookingStatus  { return b.status }
func (b *Booking) Version() int           { return b.version }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }
