package application

import (
	"context"
	"errors"
	"time"

	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/metrics"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// BookingService implements the booking lifecycle.
//
// Key design decisions:
//   - All state-changing operations use the Atomic callback pattern, so the
//     read-validate-write sequence of a transition is one transaction
//   - Ownership is checked inside the transaction, against the property the
//     booking was created under
//   - Room capacity is enforced at approval time: an approval that would push
//     the room past bed_capacity fails with ErrRoomFull
//   - Lifecycle events are written to the outbox within the same transaction
type BookingService struct {
	dataStore domain.AtomicExecutor
	repos     domain.Repositories
}

// NewBookingService creates a new BookingService.
// The dataStore must implement both AtomicExecutor and Repositories interfaces.
func NewBookingService(dataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}) *BookingService {
	return &BookingService{
		dataStore: dataStore,
		repos:     dataStore,
	}
}

// CreateBookingRequest represents a student's request to book a room.
type CreateBookingRequest struct {
	Identity      domain.Identity
	RoomID        domain.RoomID
	StartDate     time.Time
	CorrelationID types.CorrelationID
}

// CreateBookingResponse represents the response from creating a booking.
type CreateBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// CreateBooking creates a pending booking on a room.
// The property is derived from the room so the room/property pair is
// consistent by construction. No calendar overlap check is performed; rooms
// are tracked by capacity, and capacity is enforced at approval.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	var result *CreateBookingResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		room, err := repos.Rooms().FindByID(ctx, req.RoomID)
		if err != nil {
			return err
		}

		booking := domain.NewBooking(room.ID(), room.PropertyID(), req.Identity.UserID, req.StartDate, time.Now())

		id, err := repos.Bookings().Create(ctx, booking)
		if err != nil {
			return err
		}

		entry, err := domain.NewBookingOutboxEntry(domain.EventTypeBookingRequested, booking, id, req.CorrelationID)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Append(ctx, entry); err != nil {
			return err
		}

		result = &CreateBookingResponse{
			BookingID: id.String(),
			Status:    string(booking.Status()),
		}

		logging.InfoContext(ctx, "Booking created",
			"booking_id", id.String(),
			"room_id", req.RoomID.String(),
			"student_id", req.Identity.UserID.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(domain.BookingStatusPending))
	return result, nil
}

// TransitionBookingRequest represents an owner's request to move a booking
// through its lifecycle.
type TransitionBookingRequest struct {
	Identity      domain.Identity
	BookingID     domain.BookingID
	CorrelationID types.CorrelationID
}

// TransitionBookingResponse represents the response from a booking transition.
type TransitionBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// Approve moves a pending booking to approved.
// Fails with ErrRoomFull when the room's approved/checked_in bookings already
// fill its bed capacity. The state precondition is checked before the capacity
// gate, so a non-pending booking always fails with ErrInvalidTransition even
// when the room has filled up since.
func (s *BookingService) Approve(ctx context.Context, req TransitionBookingRequest) (*TransitionBookingResponse, error) {
	resp, err := s.transition(ctx, req, domain.EventTypeBookingApproved, func(repos domain.Repositories, booking *domain.Booking, now time.Time) error {
		if booking.Status() != domain.BookingStatusPending {
			return domain.ErrInvalidTransition
		}
		room, err := repos.Rooms().FindByID(ctx, booking.RoomID())
		if err != nil {
			return err
		}
		active, err := repos.Bookings().CountActiveForRoom(ctx, booking.RoomID())
		if err != nil {
			return err
		}
		if !room.HasCapacityFor(active) {
			metrics.BookingsRejectedFull.Inc()
			return domain.ErrRoomFull
		}
		return booking.Approve(now)
	})
	return resp, err
}

// Reject moves a pending booking to rejected.
func (s *BookingService) Reject(ctx context.Context, req TransitionBookingRequest) (*TransitionBookingResponse, error) {
	return s.transition(ctx, req, domain.EventTypeBookingRejected, func(_ domain.Repositories, booking *domain.Booking, now time.Time) error {
		return booking.Reject(now)
	})
}

// CheckIn moves an approved booking to checked_in.
func (s *BookingService) CheckIn(ctx context.Context, req TransitionBookingRequest) (*TransitionBookingResponse, error) {
	return s.transition(ctx, req, domain.EventTypeBookingCheckedIn, func(_ domain.Repositories, booking *domain.Booking, now time.Time) error {
		return booking.CheckIn(now)
	})
}

// CheckOut moves a checked_in booking to checked_out and stamps the end date.
func (s *BookingService) CheckOut(ctx context.Context, req TransitionBookingRequest) (*TransitionBookingResponse, error) {
	return s.transition(ctx, req, domain.EventTypeBookingCheckedOut, func(_ domain.Repositories, booking *domain.Booking, now time.Time) error {
		return booking.CheckOut(now)
	})
}

// transition runs the shared transition plumbing: authorize the owner against
// the booking's property, apply the state change, save with optimistic
// locking, and append the lifecycle event — all in one transaction.
func (s *BookingService) transition(
	ctx context.Context,
	req TransitionBookingRequest,
	eventType string,
	apply func(repos domain.Repositories, booking *domain.Booking, now time.Time) error,
) (*TransitionBookingResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	var result *TransitionBookingResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		booking, err := repos.Bookings().FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		property, err := repos.Properties().FindByID(ctx, booking.PropertyID())
		if err != nil {
			return err
		}
		if err := domain.AuthorizeOwnership(req.Identity, domain.RoleOwner, property.OwnerID()); err != nil {
			return err
		}

		if err := apply(repos, booking, time.Now()); err != nil {
			return err
		}

		if err := repos.Bookings().Save(ctx, booking); err != nil {
			return err
		}

		entry, err := domain.NewBookingOutboxEntry(eventType, booking, booking.ID(), req.CorrelationID)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Append(ctx, entry); err != nil {
			return err
		}

		result = &TransitionBookingResponse{
			BookingID: booking.ID().String(),
			Status:    string(booking.Status()),
		}

		logging.InfoContext(ctx, "Booking transitioned",
			"booking_id", booking.ID().String(),
			"status", string(booking.Status()),
			"owner_id", req.Identity.UserID.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(result.Status)
	return result, nil
}

// BookingView is the booking projection served to both roles.
type BookingView struct {
	BookingID     string     `json:"booking_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Status        string     `json:"status"`
	RoomNo        string     `json:"room_no"`
	PropertyName  string     `json:"property_name"`
	StudentName   string     `json:"student_name,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
}

// ListForStudent retrieves the caller's bookings, newest-first, with the
// latest payment status per booking.
// Degrades to an empty list when the store is unavailable.
func (s *BookingService) ListForStudent(ctx context.Context, identity domain.Identity) ([]BookingView, error) {
	if err := domain.Authorize(identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	summaries, err := s.repos.Bookings().ListForStudent(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty booking list", "error", err)
			return []BookingView{}, nil
		}
		return nil, err
	}

	return toBookingViews(summaries), nil
}

// ListForOwner retrieves bookings across the caller's properties, newest-first.
// Degrades to an empty list when the store is unavailable.
func (s *BookingService) ListForOwner(ctx context.Context, identity domain.Identity) ([]BookingView, error) {
	if err := domain.Authorize(identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	summaries, err := s.repos.Bookings().ListForOwner(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty booking list", "error", err)
			return []BookingView{}, nil
		}
		return nil, err
	}

	return toBookingViews(summaries), nil
}

func toBookingViews(summaries []domain.BookingSummary) []BookingView {
	views := make([]BookingView, 0, len(summaries))
	for _, sum := range summaries {
		view := BookingView{
			BookingID:    sum.BookingID.String(),
			StartDate:    sum.StartDate,
			EndDate:      sum.EndDate,
			Status:       string(sum.Status),
			RoomNo:       sum.RoomNo,
			PropertyName: sum.PropertyName,
			StudentName:  sum.StudentName,
		}
		if sum.PaymentStatus != nil {
			view.PaymentStatus = string(*sum.PaymentStatus)
		}
		views = append(views, view)
	}
	return views
}
