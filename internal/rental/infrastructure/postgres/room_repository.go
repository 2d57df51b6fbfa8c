package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// RoomRepository persists Room aggregates using PostgreSQL.
type RoomRepository struct {
	db DBTX
}

// NewRoomRepository binds the repository to a database handle (pool or tx).
func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

const insertRoomSQL = `
INSERT INTO rental.rooms (property_id, room_no, room_type, bed_capacity, rent_amount, rent_currency, deposit_amount, deposit_currency, sharing, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

// Create persists a new room and returns the database-assigned ID.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) (domain.RoomID, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertRoomSQL,
		int64(room.PropertyID()),
		room.RoomNo(),
		room.RoomType(),
		room.BedCapacity(),
		decimalToNumeric(room.Rent().Amount),
		room.Rent().Currency,
		decimalToNumeric(room.Deposit().Amount),
		room.Deposit().Currency,
		room.Sharing(),
		timeToTimestamptz(room.CreatedAt()),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return domain.RoomID(id), nil
}

const selectRoomSQL = `
SELECT id, property_id, room_no, room_type, bed_capacity, rent_amount, rent_currency, deposit_amount, deposit_currency, sharing, created_at
FROM rental.rooms`

// FindByID retrieves a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, selectRoomSQL+" WHERE id = $1", int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	return room, err
}

const listRoomsByPropertySQL = `
SELECT r.id, r.property_id, r.room_no, r.room_type, r.bed_capacity, r.rent_amount, r.rent_currency, r.deposit_amount, r.deposit_currency, r.sharing, r.created_at,
       (SELECT COUNT(*) FROM rental.bookings b
        WHERE b.room_id = r.id AND b.status IN ('approved', 'checked_in')) AS active_students
FROM rental.rooms r
WHERE r.property_id = $1
ORDER BY r.id`

// ListByProperty retrieves a property's rooms with their derived occupancy.
// Occupancy is computed per room as the count of approved/checked_in bookings.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *RoomRepository) ListByProperty(ctx context.Context, propertyID domain.PropertyID) ([]domain.RoomOccupancy, error) {
	rows, err := r.db.Query(ctx, listRoomsByPropertySQL, int64(propertyID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var occupancies []domain.RoomOccupancy
	for rows.Next() {
		var (
			id, propID                    int64
			roomNo, roomType              string
			bedCapacity, sharing, active  int
			rentAmount, depositAmount     pgtype.Numeric
			rentCurrency, depositCurrency string
			createdAt                     pgtype.Timestamptz
		)
		err := rows.Scan(&id, &propID, &roomNo, &roomType, &bedCapacity,
			&rentAmount, &rentCurrency, &depositAmount, &depositCurrency,
			&sharing, &createdAt, &active)
		if err != nil {
			return nil, err
		}

		room, err := reconstructRoom(id, propID, roomNo, roomType, bedCapacity,
			rentAmount, rentCurrency, depositAmount, depositCurrency, sharing, createdAt)
		if err != nil {
			return nil, err
		}

		occupancies = append(occupancies, domain.RoomOccupancy{
			Room:           room,
			ActiveStudents: active,
		})
	}
	return occupancies, rows.Err()
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		id, propID                    int64
		roomNo, roomType              string
		bedCapacity, sharing          int
		rentAmount, depositAmount     pgtype.Numeric
		rentCurrency, depositCurrency string
		createdAt                     pgtype.Timestamptz
	)
	err := row.Scan(&id, &propID, &roomNo, &roomType, &bedCapacity,
		&rentAmount, &rentCurrency, &depositAmount, &depositCurrency,
		&sharing, &createdAt)
	if err != nil {
		return nil, err
	}
	return reconstructRoom(id, propID, roomNo, roomType, bedCapacity,
		rentAmount, rentCurrency, depositAmount, depositCurrency, sharing, createdAt)
}

func reconstructRoom(
	id, propID int64,
	roomNo, roomType string,
	bedCapacity int,
	rentAmount pgtype.Numeric, rentCurrency string,
	depositAmount pgtype.Numeric, depositCurrency string,
	sharing int,
	createdAt pgtype.Timestamptz,
) (*domain.Room, error) {
	rent, err := numericToDecimal(rentAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid rent_amount: %v", domain.ErrCorruptData, err)
	}
	deposit, err := numericToDecimal(depositAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid deposit_amount: %v", domain.ErrCorruptData, err)
	}
	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}

	return domain.ReconstructRoom(
		domain.RoomID(id),
		domain.PropertyID(propID),
		roomNo, roomType, bedCapacity,
		types.NewMoney(rent, rentCurrency),
		types.NewMoney(deposit, depositCurrency),
		sharing,
		created,
	), nil
}

// Verify interface implementation.
var _ domain.RoomRepository = (*RoomRepository)(nil)
