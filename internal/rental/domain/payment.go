package domain

import (
	"time"

	"hostelhub/internal/common/types"
)

// PaymentStatus is the closed set of payment states.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Payment is one rent payment attempt against a booking. The amount is a
// snapshot of the room's rent at initiation time, not a locked rate. Only the
// most recently created payment per booking (highest PaymentID) is eligible
// for confirmation.
type Payment struct {
	id        PaymentID
	bookingID BookingID
	amount    types.Money
	method    string
	status    PaymentStatus
	txnRef    *string
	paidAt    *time.Time
	version   int
	createdAt time.Time
}

// NewPayment creates a pending payment; the repository assigns the ID.
func NewPayment(bookingID BookingID, amount types.Money, method string, now time.Time) *Payment {
	return &Payment{
		bookingID: bookingID,
		amount:    amount,
		method:    method,
		status:    PaymentStatusPending,
		version:   1,
		createdAt: now,
	}
}

// ReconstructPayment rehydrates a Payment from persisted state.
func ReconstructPayment(
	id PaymentID,
	bookingID BookingID,
	amount types.Money,
	method string,
	status PaymentStatus,
	txnRef *string,
	paidAt *time.Time,
	version int,
	createdAt time.Time,
) *Payment {
	return &Payment{
		id:        id,
		bookingID: bookingID,
		amount:    amount,
		method:    method,
		status:    status,
		txnRef:    txnRef,
		paidAt:    paidAt,
		version:   version,
		createdAt: createdAt,
	}
}

// Confirm marks the payment as paid with a transaction reference.
// Confirming an already-paid payment is a no-op: the original txn_ref and
// paid_at are kept stable. Returns whether the call changed state.
func (p *Payment) Confirm(txnRef string, now time.Time) bool {
	if p.status == PaymentStatusPaid {
		return false
	}
	p.status = PaymentStatusPaid
	p.txnRef = &txnRef
	paidAt := now
	p.paidAt = &paidAt
	p.version++
	return true
}

func (p *Payment) ID() PaymentID         { return p.id }
func (p *Payment) BookingID() BookingID  { return p.bookingID }
func (p *Payment) Amount() types.Money   { return p.amount }
func (p *Payment) Method() string        { return p.method }
func (p *Payment) Status() PaymentStatus { return p.status }
func (p *Payment) TxnRef() *string       { return p.txnRef }
func (p *Payment) PaidAt() *time.Time    { return p.paidAt }
func (p *Payment) Version() int          { return p.version }
func (p *Payment) CreatedAt() time.Time  { return p.createdAt }
