package domain

import (
	"context"
	"time"

	"hostelhub/internal/common/types"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	// Create persists a new user and returns the assigned ID.
	// Returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *User) (UserID, error)
	// FindByID retrieves a user by ID.
	// Returns ErrUserNotFound when no record exists.
	FindByID(ctx context.Context, id UserID) (*User, error)
	// FindByEmail retrieves a user by email.
	// Returns ErrUserNotFound when no record exists.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PropertyRepository defines the interface for property persistence.
type PropertyRepository interface {
	// Create persists a new property and returns the assigned ID.
	Create(ctx context.Context, property *Property) (PropertyID, error)
	// FindByID retrieves a property by ID.
	// Returns ErrPropertyNotFound when no record exists.
	FindByID(ctx context.Context, id PropertyID) (*Property, error)
	// ListAll retrieves every listed property, newest-first.
	ListAll(ctx context.Context) ([]*Property, error)
	// ListByOwner retrieves the properties of one owner, newest-first.
	ListByOwner(ctx context.Context, ownerID UserID) ([]*Property, error)
}

// RoomRepository defines the interface for room persistence.
type RoomRepository interface {
	// Create persists a new room and returns the assigned ID.
	Create(ctx context.Context, room *Room) (RoomID, error)
	// FindByID retrieves a room by ID.
	// Returns ErrRoomNotFound when no record exists.
	FindByID(ctx context.Context, id RoomID) (*Room, error)
	// ListByProperty retrieves a property's rooms with their derived
	// occupancy (count of approved/checked_in bookings).
	ListByProperty(ctx context.Context, propertyID PropertyID) ([]RoomOccupancy, error)
}

// BookingRepository defines the interface for booking persistence.
type BookingRepository interface {
	// Create persists a new booking and returns the assigned ID.
	Create(ctx context.Context, booking *Booking) (BookingID, error)
	// FindByID retrieves a booking by ID.
	// Returns ErrBookingNotFound when no record exists.
	FindByID(ctx context.Context, id BookingID) (*Booking, error)
	// Save persists a transitioned booking aggregate.
	// Returns ErrOptimisticLock if a version conflict is detected.
	Save(ctx context.Context, booking *Booking) error
	// CountActiveForRoom counts approved/checked_in bookings on a room.
	CountActiveForRoom(ctx context.Context, roomID RoomID) (int, error)
	// ListForStudent retrieves the student's bookings, newest-first, with
	// room/property names and the latest payment status.
	ListForStudent(ctx context.Context, studentID UserID) ([]BookingSummary, error)
	// ListForOwner retrieves bookings across the owner's properties,
	// newest-first, with student names.
	ListForOwner(ctx context.Context, ownerID UserID) ([]BookingSummary, error)
}

// PaymentRepository defines the interface for payment persistence.
type PaymentRepository interface {
	// Create persists a new payment and returns the assigned ID.
	Create(ctx context.Context, payment *Payment) (PaymentID, error)
	// FindLatestByBooking retrieves the most recently created payment for a
	// booking (highest ID). Returns (nil, nil) when no payment exists.
	FindLatestByBooking(ctx context.Context, bookingID BookingID) (*Payment, error)
	// Save persists a confirmed payment aggregate.
	// Returns ErrOptimisticLock if a version conflict is detected.
	Save(ctx context.Context, payment *Payment) error
	// ListForStudent retrieves payments across the student's bookings, newest-first.
	ListForStudent(ctx context.Context, studentID UserID) ([]PaymentRecord, error)
	// ListForOwner retrieves payments across the owner's properties, newest-first.
	ListForOwner(ctx context.Context, ownerID UserID) ([]PaymentRecord, error)
}

// RoomOccupancy is the room read model with its derived occupancy count.
type RoomOccupancy struct {
	Room           *Room
	ActiveStudents int
}

// BookingSummary is the booking read model joined with room, property, and
// user names. PaymentStatus is populated for student listings only; StudentName
// for owner listings only.
type BookingSummary struct {
	BookingID     BookingID
	StartDate     time.Time
	EndDate       *time.Time
	Status        BookingStatus
	RoomNo        string
	PropertyName  string
	StudentName   string
	PaymentStatus *PaymentStatus
}

// PaymentRecord is the payment read model joined with room and property
// names. StudentName is populated for owner listings only.
type PaymentRecord struct {
	PaymentID    PaymentID
	BookingID    BookingID
	Amount       types.Money
	Method       string
	Status       PaymentStatus
	TxnRef       *string
	PaidAt       *time.Time
	RoomNo       string
	PropertyName string
	StudentName  string
	CreatedAt    time.Time
}

// Repositories provides access to all repositories within a transaction.
// This is used with the Atomic pattern so all operations share the same transaction.
type Repositories interface {
	Users() UserRepository
	Properties() PropertyRepository
	Rooms() RoomRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
	Outbox() OutboxRepository
}

// AtomicCallback is the function signature for atomic operations.
// Any error returned will cause the transaction to be rolled back.
type AtomicCallback func(repos Repositories) error

// AtomicExecutor runs a set of repository operations as one transaction.
// The service requests an atomic operation with the procedures defined in the
// callback; commit and rollback concerns belong to the datastore.
type AtomicExecutor interface {
	// Atomic executes the callback within a database transaction.
	// If the callback returns nil, the transaction is committed.
	// If the callback returns an error, the transaction is rolled back.
	Atomic(ctx context.Context, fn AtomicCallback) error
}

// OutboxEntry represents a domain event waiting to be published.
type OutboxEntry struct {
	ID            types.EventID
	EventType     string
	CorrelationID types.CorrelationID
	Payload       []byte
	OccurredAt    time.Time
	PublishedAt   *time.Time
}

// OutboxRepository defines the interface for the outbox pattern.
// Events are written to the outbox within the same transaction as the domain
// changes, then published asynchronously by a separate process.
type OutboxRepository interface {
	// Append adds an event to the outbox.
	Append(ctx context.Context, entry *OutboxEntry) error
	// FetchUnpublished retrieves unpublished events for publishing.
	FetchUnpublished(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// MarkPublished marks events as published.
	MarkPublished(ctx context.Context, ids []types.EventID) error
}
