package domain

import (
	"encoding/json"
	"time"

	"hostelhub/internal/common/types"
)

// Event types for the Rental context.
const (
	EventTypeBookingRequested  = "booking.requested"
	EventTypeBookingApproved   = "booking.approved"
	EventTypeBookingRejected   = "booking.rejected"
	EventTypeBookingCheckedIn  = "booking.checked_in"
	EventTypeBookingCheckedOut = "booking.checked_out"
	EventTypePaymentInitiated  = "payment.initiated"
	EventTypePaymentConfirmed  = "payment.confirmed"
)

// BookingEvent is emitted on every booking lifecycle change.
type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	PropertyID string    `json:"property_id"`
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentEvent is emitted when a payment is initiated or confirmed.
type PaymentEvent struct {
	PaymentID  string      `json:"payment_id"`
	BookingID  string      `json:"booking_id"`
	Amount     types.Money `json:"amount"`
	Method     string      `json:"method"`
	Status     string      `json:"status"`
	TxnRef     string      `json:"txn_ref,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewBookingOutboxEntry creates an outbox entry for a booking lifecycle event.
// The booking's current status determines nothing here; the caller names the
// event type matching the transition just performed.
func NewBookingOutboxEntry(eventType string, booking *Booking, bookingID BookingID, correlationID types.CorrelationID) (*OutboxEntry, error) {
	event := BookingEvent{
		BookingID:  bookingID.String(),
		RoomID:     booking.RoomID().String(),
		PropertyID: booking.PropertyID().String(),
		StudentID:  booking.StudentID().String(),
		Status:     string(booking.Status()),
		OccurredAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxEntry{
		ID:            types.NewEventID(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Payload:       payload,
		OccurredAt:    event.OccurredAt,
	}, nil
}

// NewPaymentOutboxEntry creates an outbox entry for a payment event.
func NewPaymentOutboxEntry(eventType string, payment *Payment, paymentID PaymentID, correlationID types.CorrelationID) (*OutboxEntry, error) {
	event := PaymentEvent{
		PaymentID:  paymentID.String(),
		BookingID:  payment.BookingID().String(),
		Amount:     payment.Amount(),
		Method:     payment.Method(),
		Status:     string(payment.Status()),
		OccurredAt: time.Now(),
	}
	if ref := payment.TxnRef(); ref != nil {
		event.TxnRef = *ref
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxEntry{
		ID:            types.NewEventID(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Payload:       payload,
		OccurredAt:    event.OccurredAt,
	}, nil
}
