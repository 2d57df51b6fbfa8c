package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/metrics"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// PaymentService implements the rent payment ledger.
//
// Key design decisions:
//   - The payment amount is snapshotted from the room's current rent at
//     initiation; it is not a locked rate
//   - Confirmation targets the most recently created payment (highest ID)
//     and is a no-op when the booking has no payment rows
//   - Transaction references are random tokens, never derived from
//     timestamps, so concurrent confirmations cannot collide
type PaymentService struct {
	dataStore domain.AtomicExecutor
	repos     domain.Repositories
}

// NewPaymentService creates a new PaymentService.
// The dataStore must implement both AtomicExecutor and Repositories interfaces.
func NewPaymentService(dataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}) *PaymentService {
	return &PaymentService{
		dataStore: dataStore,
		repos:     dataStore,
	}
}

// InitiatePaymentRequest represents a student's request to pay rent on a booking.
type InitiatePaymentRequest struct {
	Identity      domain.Identity
	BookingID     domain.BookingID
	Method        string
	CorrelationID types.CorrelationID
}

// InitiatePaymentResponse represents the response from initiating a payment.
type InitiatePaymentResponse struct {
	PaymentID string      `json:"payment_id"`
	Amount    types.Money `json:"amount"`
	Status    string      `json:"status"`
}

// InitiatePayment creates a pending payment for the booking's current room
// rent. The booking may be in any lifecycle state; only ownership is checked.
func (s *PaymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	var result *InitiatePaymentResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		booking, err := repos.Bookings().FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := domain.AuthorizeOwnership(req.Identity, domain.RoleStudent, booking.StudentID()); err != nil {
			return err
		}

		room, err := repos.Rooms().FindByID(ctx, booking.RoomID())
		if err != nil {
			return err
		}

		payment := domain.NewPayment(req.BookingID, room.Rent(), req.Method, time.Now())

		id, err := repos.Payments().Create(ctx, payment)
		if err != nil {
			return err
		}

		entry, err := domain.NewPaymentOutboxEntry(domain.EventTypePaymentInitiated, payment, id, req.CorrelationID)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Append(ctx, entry); err != nil {
			return err
		}

		result = &InitiatePaymentResponse{
			PaymentID: id.String(),
			Amount:    payment.Amount(),
			Status:    string(payment.Status()),
		}

		logging.InfoContext(ctx, "Payment initiated",
			"payment_id", id.String(),
			"booking_id", req.BookingID.String(),
			"amount", payment.Amount().String(),
			"method", req.Method,
		)
		return nil
	})

	return result, err
}

// ConfirmPaymentRequest represents a student's request to confirm the latest
// payment on a booking.
type ConfirmPaymentRequest struct {
	Identity      domain.Identity
	BookingID     domain.BookingID
	CorrelationID types.CorrelationID
}

// ConfirmPaymentResponse represents the response from confirming a payment.
// Confirmed is false when the booking had no payment rows (no-op).
type ConfirmPaymentResponse struct {
	Confirmed bool   `json:"confirmed"`
	PaymentID string `json:"payment_id,omitempty"`
	TxnRef    string `json:"txn_ref,omitempty"`
}

// ConfirmPayment marks the booking's most recently created payment as paid,
// assigning a collision-free transaction reference and the paid_at time.
// Older payment rows for the booking are never touched. Confirming a booking
// with no payments is a no-op; confirming an already-paid payment keeps its
// original reference.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*ConfirmPaymentResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	var result *ConfirmPaymentResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		booking, err := repos.Bookings().FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if err := domain.AuthorizeOwnership(req.Identity, domain.RoleStudent, booking.StudentID()); err != nil {
			return err
		}

		payment, err := repos.Payments().FindLatestByBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if payment == nil {
			result = &ConfirmPaymentResponse{Confirmed: false}
			logging.InfoContext(ctx, "No payment to confirm", "booking_id", req.BookingID.String())
			return nil
		}

		txnRef := fmt.Sprintf("TXN-%s", uuid.NewString())
		if !payment.Confirm(txnRef, time.Now()) {
			// Already paid: keep the original reference stable.
			result = &ConfirmPaymentResponse{
				Confirmed: false,
				PaymentID: payment.ID().String(),
				TxnRef:    *payment.TxnRef(),
			}
			return nil
		}

		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		entry, err := domain.NewPaymentOutboxEntry(domain.EventTypePaymentConfirmed, payment, payment.ID(), req.CorrelationID)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Append(ctx, entry); err != nil {
			return err
		}

		result = &ConfirmPaymentResponse{
			Confirmed: true,
			PaymentID: payment.ID().String(),
			TxnRef:    txnRef,
		}

		logging.InfoContext(ctx, "Payment confirmed",
			"payment_id", payment.ID().String(),
			"booking_id", req.BookingID.String(),
			"txn_ref", txnRef,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Confirmed {
		metrics.RecordPaymentConfirmed()
	}
	return result, nil
}

// LatestStatus returns the status of the most recently created payment for a
// booking, or nil when none exists.
func (s *PaymentService) LatestStatus(ctx context.Context, identity domain.Identity, bookingID domain.BookingID) (*domain.PaymentStatus, error) {
	if err := domain.Authorize(identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	booking, err := s.repos.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := domain.AuthorizeOwnership(identity, domain.RoleStudent, booking.StudentID()); err != nil {
		return nil, err
	}

	payment, err := s.repos.Payments().FindLatestByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, nil
	}
	status := payment.Status()
	return &status, nil
}

// PaymentView is the payment projection served to both roles.
type PaymentView struct {
	PaymentID    string      `json:"payment_id"`
	BookingID    string      `json:"booking_id"`
	Amount       types.Money `json:"amount"`
	Method       string      `json:"method"`
	Status       string      `json:"status"`
	TxnRef       string      `json:"txn_ref,omitempty"`
	PaidAt       *time.Time  `json:"paid_at,omitempty"`
	RoomNo       string      `json:"room_no"`
	PropertyName string      `json:"property_name"`
	StudentName  string      `json:"student_name,omitempty"`
}

// ListForStudent retrieves payments across the caller's bookings, newest-first.
// Degrades to an empty list when the store is unavailable.
func (s *PaymentService) ListForStudent(ctx context.Context, identity domain.Identity) ([]PaymentView, error) {
	if err := domain.Authorize(identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	records, err := s.repos.Payments().ListForStudent(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty payment list", "error", err)
			return []PaymentView{}, nil
		}
		return nil, err
	}

	return toPaymentViews(records), nil
}

// ListForOwner retrieves payments across the caller's properties, newest-first.
// Degrades to an empty list when the store is unavailable.
func (s *PaymentService) ListForOwner(ctx context.Context, identity domain.Identity) ([]PaymentView, error) {
	if err := domain.Authorize(identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	records, err := s.repos.Payments().ListForOwner(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty payment list", "error", err)
			return []PaymentView{}, nil
		}
		return nil, err
	}

	return toPaymentViews(records), nil
}

func toPaymentViews(records []domain.PaymentRecord) []PaymentView {
	views := make([]PaymentView, 0, len(records))
	for _, rec := range records {
		view := PaymentView{
			PaymentID:    rec.PaymentID.String(),
			BookingID:    rec.BookingID.String(),
			Amount:       rec.Amount,
			Method:       rec.Method,
			Status:       string(rec.Status),
			PaidAt:       rec.PaidAt,
			RoomNo:       rec.RoomNo,
			PropertyName: rec.PropertyName,
			StudentName:  rec.StudentName,
		}
		if rec.TxnRef != nil {
			view.TxnRef = *rec.TxnRef
		}
		views = append(views, view)
	}
	return views
}
