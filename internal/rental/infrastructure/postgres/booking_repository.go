package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/common/metrics"
	"hostelhub/internal/rental/domain"
)

// BookingRepository persists Booking aggregates using PostgreSQL.
type BookingRepository struct {
	db DBTX
}

// NewBookingRepository binds the repository to a database handle (pool or tx).
// Callers control transactional scope by passing a pgx.Tx when participating in a unit of work.
func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const insertBookingSQL = `
INSERT INTO rental.bookings (room_id, property_id, student_id, start_date, end_date, status, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

// Create persists a new booking and returns the database-assigned ID.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (domain.BookingID, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertBookingSQL,
		int64(booking.RoomID()),
		int64(booking.PropertyID()),
		int64(booking.StudentID()),
		timeToTimestamptz(booking.StartDate()),
		timePtrToTimestamptz(booking.EndDate()),
		string(booking.Status()),
		booking.Version(),
		timeToTimestamptz(booking.CreatedAt()),
		timeToTimestamptz(booking.UpdatedAt()),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return domain.BookingID(id), nil
}

const selectBookingSQL = `
SELECT id, room_id, property_id, student_id, start_date, end_date, status, version, created_at, updated_at
FROM rental.bookings`

// FindByID retrieves a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, selectBookingSQL+" WHERE id = $1", int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return booking, err
}

const updateBookingSQL = `
UPDATE rental.bookings
SET status = $2, end_date = $3, version = $4, updated_at = $5
WHERE id = $1 AND version = $6`

// Save persists a transitioned booking aggregate with optimistic locking:
// the update applies only when the stored version matches (version - 1).
// Errors: returns domain.ErrOptimisticLock on version conflict.
func (r *BookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	tag, err := r.db.Exec(ctx, updateBookingSQL,
		int64(booking.ID()),
		string(booking.Status()),
		timePtrToTimestamptz(booking.EndDate()),
		booking.Version(),
		timeToTimestamptz(booking.UpdatedAt()),
		booking.Version()-1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordOptimisticLockConflict("bookings")
		return domain.ErrOptimisticLock
	}
	return nil
}

const countActiveForRoomSQL = `
SELECT COUNT(*) FROM rental.bookings
WHERE room_id = $1 AND status IN ('approved', 'checked_in')`

// CountActiveForRoom counts approved/checked_in bookings on a room.
// An advisory transaction lock keyed by the room serializes concurrent
// capacity checks; the lock releases at commit or rollback.
func (r *BookingRepository) CountActiveForRoom(ctx context.Context, roomID domain.RoomID) (int, error) {
	if _, err := r.db.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(roomID)); err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, countActiveForRoomSQL, int64(roomID)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const listBookingsForStudentSQL = `
SELECT b.id, b.start_date, b.end_date, b.status, r.room_no, p.name,
       (SELECT pay.status FROM rental.payments pay
        WHERE pay.booking_id = b.id ORDER BY pay.id DESC LIMIT 1) AS payment_status
FROM rental.bookings b
JOIN rental.rooms r ON r.id = b.room_id
JOIN rental.properties p ON p.id = b.property_id
WHERE b.student_id = $1
ORDER BY b.id DESC`

// ListForStudent retrieves the student's bookings, newest-first, joined with
// room/property names and the latest payment status per booking.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *BookingRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.BookingSummary, error) {
	rows, err := r.db.Query(ctx, listBookingsForStudentSQL, int64(studentID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var summaries []domain.BookingSummary
	for rows.Next() {
		var (
			id               int64
			startDate        pgtype.Timestamptz
			endDate          pgtype.Timestamptz
			status           string
			roomNo, propName string
			paymentStatus    pgtype.Text
		)
		if err := rows.Scan(&id, &startDate, &endDate, &status, &roomNo, &propName, &paymentStatus); err != nil {
			return nil, err
		}

		summary, err := buildBookingSummary(id, startDate, endDate, status, roomNo, propName)
		if err != nil {
			return nil, err
		}
		if paymentStatus.Valid {
			ps := domain.PaymentStatus(paymentStatus.String)
			summary.PaymentStatus = &ps
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

const listBookingsForOwnerSQL = `
SELECT b.id, b.start_date, b.end_date, b.status, r.room_no, p.name, u.name
FROM rental.bookings b
JOIN rental.rooms r ON r.id = b.room_id
JOIN rental.properties p ON p.id = b.property_id
JOIN rental.users u ON u.id = b.student_id
WHERE p.owner_id = $1
ORDER BY b.id DESC`

// ListForOwner retrieves bookings across the owner's properties, newest-first,
// joined with student names.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *BookingRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.BookingSummary, error) {
	rows, err := r.db.Query(ctx, listBookingsForOwnerSQL, int64(ownerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var summaries []domain.BookingSummary
	for rows.Next() {
		var (
			id                            int64
			startDate, endDate            pgtype.Timestamptz
			status                        string
			roomNo, propName, studentName string
		)
		if err := rows.Scan(&id, &startDate, &endDate, &status, &roomNo, &propName, &studentName); err != nil {
			return nil, err
		}

		summary, err := buildBookingSummary(id, startDate, endDate, status, roomNo, propName)
		if err != nil {
			return nil, err
		}
		summary.StudentName = studentName
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func buildBookingSummary(id int64, startDate, endDate pgtype.Timestamptz, status, roomNo, propName string) (domain.BookingSummary, error) {
	start, err := timestamptzToTime(startDate)
	if err != nil {
		return domain.BookingSummary{}, fmt.Errorf("%w: invalid start_date: %v", domain.ErrCorruptData, err)
	}
	end, err := timestamptzToTimePtr(endDate)
	if err != nil {
		return domain.BookingSummary{}, fmt.Errorf("%w: invalid end_date: %v", domain.ErrCorruptData, err)
	}

	return domain.BookingSummary{
		BookingID:    domain.BookingID(id),
		StartDate:    start,
		EndDate:      end,
		Status:       domain.BookingStatus(status),
		RoomNo:       roomNo,
		PropertyName: propName,
	}, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		id, roomID, propID, studentID int64
		startDate, endDate            pgtype.Timestamptz
		status                        string
		version                       int
		createdAt, updatedAt          pgtype.Timestamptz
	)
	err := row.Scan(&id, &roomID, &propID, &studentID, &startDate, &endDate, &status, &version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	start, err := timestamptzToTime(startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date: %v", domain.ErrCorruptData, err)
	}
	end, err := timestamptzToTimePtr(endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date: %v", domain.ErrCorruptData, err)
	}
	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}
	updated, err := timestamptzToTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid updated_at: %v", domain.ErrCorruptData, err)
	}

	return domain.ReconstructBooking(
		domain.BookingID(id),
		domain.RoomID(roomID),
		domain.PropertyID(propID),
		domain.UserID(studentID),
		start, end,
		domain.BookingStatus(status),
		version,
		created, updated,
	), nil
}

// Verify interface implementation.
var _ domain.BookingRepository = (*BookingRepository)(nil)
