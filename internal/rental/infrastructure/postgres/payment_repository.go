package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/common/metrics"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// PaymentRepository persists Payment aggregates using PostgreSQL.
// Payment recency relies on the id sequence: the most recently created payment
// for a booking is the row with the highest id.
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository binds the repository to a database handle (pool or tx).
// Callers control transactional scope by passing a pgx.Tx when participating in a unit of work.
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const insertPaymentSQL = `
INSERT INTO rental.payments (booking_id, amount, currency, method, status, txn_ref, paid_at, version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

// Create persists a new payment and returns the database-assigned ID.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) (domain.PaymentID, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertPaymentSQL,
		int64(payment.BookingID()),
		decimalToNumeric(payment.Amount().Amount),
		payment.Amount().Currency,
		payment.Method(),
		string(payment.Status()),
		textFromStringPtr(payment.TxnRef()),
		timePtrToTimestamptz(payment.PaidAt()),
		payment.Version(),
		timeToTimestamptz(payment.CreatedAt()),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return domain.PaymentID(id), nil
}

const selectLatestPaymentSQL = `
SELECT id, booking_id, amount, currency, method, status, txn_ref, paid_at, version, created_at
FROM rental.payments
WHERE booking_id = $1
ORDER BY id DESC
LIMIT 1`

// FindLatestByBooking retrieves the most recently created payment for a
// booking. Returns (nil, nil) when no payment exists; confirmation treats
// that as a no-op rather than an error.
func (r *PaymentRepository) FindLatestByBooking(ctx context.Context, bookingID domain.BookingID) (*domain.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx, selectLatestPaymentSQL, int64(bookingID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return payment, err
}

const updatePaymentSQL = `
UPDATE rental.payments
SET status = $2, txn_ref = $3, paid_at = $4, version = $5
WHERE id = $1 AND version = $6`

// Save persists a confirmed payment aggregate with optimistic locking:
// the update applies only when the stored version matches (version - 1).
// Errors: returns domain.ErrOptimisticLock on version conflict.
func (r *PaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	tag, err := r.db.Exec(ctx, updatePaymentSQL,
		int64(payment.ID()),
		string(payment.Status()),
		textFromStringPtr(payment.TxnRef()),
		timePtrToTimestamptz(payment.PaidAt()),
		payment.Version(),
		payment.Version()-1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordOptimisticLockConflict("payments")
		return domain.ErrOptimisticLock
	}
	return nil
}

const listPaymentsForStudentSQL = `
SELECT pay.id, pay.booking_id, pay.amount, pay.currency, pay.method, pay.status, pay.txn_ref, pay.paid_at, pay.created_at,
       r.room_no, p.name
FROM rental.payments pay
JOIN rental.bookings b ON b.id = pay.booking_id
JOIN rental.rooms r ON r.id = b.room_id
JOIN rental.properties p ON p.id = b.property_id
WHERE b.student_id = $1
ORDER BY pay.id DESC`

// ListForStudent retrieves payments across the student's bookings, newest-first.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *PaymentRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.PaymentRecord, error) {
	rows, err := r.db.Query(ctx, listPaymentsForStudentSQL, int64(studentID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		record, err := scanPaymentRecord(rows, false)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

const listPaymentsForOwnerSQL = `
SELECT pay.id, pay.booking_id, pay.amount, pay.currency, pay.method, pay.status, pay.txn_ref, pay.paid_at, pay.created_at,
       r.room_no, p.name, u.name
FROM rental.payments pay
JOIN rental.bookings b ON b.id = pay.booking_id
JOIN rental.rooms r ON r.id = b.room_id
JOIN rental.properties p ON p.id = b.property_id
JOIN rental.users u ON u.id = b.student_id
WHERE p.owner_id = $1
ORDER BY pay.id DESC`

// ListForOwner retrieves payments across the owner's properties, newest-first,
// joined with student names.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *PaymentRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.PaymentRecord, error) {
	rows, err := r.db.Query(ctx, listPaymentsForOwnerSQL, int64(ownerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		record, err := scanPaymentRecord(rows, true)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanPaymentRecord(rows pgx.Rows, withStudent bool) (domain.PaymentRecord, error) {
	var (
		id, bookingID    int64
		amount           pgtype.Numeric
		currency, method string
		status           string
		txnRef           pgtype.Text
		paidAt           pgtype.Timestamptz
		createdAt        pgtype.Timestamptz
		roomNo, propName string
		studentName      string
	)

	dest := []any{&id, &bookingID, &amount, &currency, &method, &status, &txnRef, &paidAt, &createdAt, &roomNo, &propName}
	if withStudent {
		dest = append(dest, &studentName)
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.PaymentRecord{}, err
	}

	amountDec, err := numericToDecimal(amount)
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("%w: invalid amount: %v", domain.ErrCorruptData, err)
	}
	paid, err := timestamptzToTimePtr(paidAt)
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("%w: invalid paid_at: %v", domain.ErrCorruptData, err)
	}
	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}

	return domain.PaymentRecord{
		PaymentID:    domain.PaymentID(id),
		BookingID:    domain.BookingID(bookingID),
		Amount:       types.NewMoney(amountDec, currency),
		Method:       method,
		Status:       domain.PaymentStatus(status),
		TxnRef:       textToStringPtr(txnRef),
		PaidAt:       paid,
		RoomNo:       roomNo,
		PropertyName: propName,
		StudentName:  studentName,
		CreatedAt:    created,
	}, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		id, bookingID    int64
		amount           pgtype.Numeric
		currency, method string
		status           string
		txnRef           pgtype.Text
		paidAt           pgtype.Timestamptz
		version          int
		createdAt        pgtype.Timestamptz
	)
	err := row.Scan(&id, &bookingID, &amount, &currency, &method, &status, &txnRef, &paidAt, &version, &createdAt)
	if err != nil {
		return nil, err
	}

	amountDec, err := numericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount: %v", domain.ErrCorruptData, err)
	}
	paid, err := timestamptzToTimePtr(paidAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid paid_at: %v", domain.ErrCorruptData, err)
	}
	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}

	return domain.ReconstructPayment(
		domain.PaymentID(id),
		domain.BookingID(bookingID),
		types.NewMoney(amountDec, currency),
		method,
		domain.PaymentStatus(status),
		textToStringPtr(txnRef),
		paid,
		version,
		created,
	), nil
}

// Verify interface implementation.
var _ domain.PaymentRepository = (*PaymentRepository)(nil)
