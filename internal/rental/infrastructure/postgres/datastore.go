package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostelhub/internal/common/metrics"
	"hostelhub/internal/rental/domain"
)

// DBTX is the database handle shared by pool and transaction scopes.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DataStore implements domain.AtomicExecutor and domain.Repositories using
// PostgreSQL.
type DataStore struct {
	pool         *pgxpool.Pool
	userRepo     *UserRepository
	propertyRepo *PropertyRepository
	roomRepo     *RoomRepository
	bookingRepo  *BookingRepository
	paymentRepo  *PaymentRepository
	outboxRepo   *OutboxRepository
}

// NewDataStore creates a new DataStore with the given connection pool.
func NewDataStore(pool *pgxpool.Pool) *DataStore {
	return &DataStore{
		pool:         pool,
		userRepo:     NewUserRepository(pool),
		propertyRepo: NewPropertyRepository(pool),
		roomRepo:     NewRoomRepository(pool),
		bookingRepo:  NewBookingRepository(pool),
		paymentRepo:  NewPaymentRepository(pool),
		outboxRepo:   NewOutboxRepository(pool),
	}
}

// Users returns the user repository.
func (ds *DataStore) Users() domain.UserRepository { return ds.userRepo }

// Properties returns the property repository.
func (ds *DataStore) Properties() domain.PropertyRepository { return ds.propertyRepo }

// Rooms returns the room repository.
func (ds *DataStore) Rooms() domain.RoomRepository { return ds.roomRepo }

// Bookings returns the booking repository.
func (ds *DataStore) Bookings() domain.BookingRepository { return ds.bookingRepo }

// Payments returns the payment repository.
func (ds *DataStore) Payments() domain.PaymentRepository { return ds.paymentRepo }

// Outbox returns the outbox repository.
func (ds *DataStore) Outbox() domain.OutboxRepository { return ds.outboxRepo }

// withTx creates a new DataStore with transactional repositories.
// This is the key to the Atomic pattern - we create new repository instances
// that share the same transaction.
func (ds *DataStore) withTx(tx pgx.Tx) *DataStore {
	return &DataStore{
		pool:         ds.pool,
		userRepo:     NewUserRepository(tx),
		propertyRepo: NewPropertyRepository(tx),
		roomRepo:     NewRoomRepository(tx),
		bookingRepo:  NewBookingRepository(tx),
		paymentRepo:  NewPaymentRepository(tx),
		outboxRepo:   NewOutboxRepository(tx),
	}
}

// Atomic executes the callback within a database transaction.
// If the callback returns nil, the transaction is committed.
// If the callback returns an error or panics, the transaction is rolled back.
//
// - The service is responsible for requesting an atomic operation with procedures defined in the callback
// - All concerns like commits and rollbacks are handled by the repository
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) (err error) {
	start := time.Now()
	tx, err := ds.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}

	// Use defer to handle both errors and panics
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("tx error: %v, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("commit transaction: %w", err)
			}
		}
		metrics.RecordTransactionDuration("atomic", time.Since(start))
	}()

	txDataStore := ds.withTx(tx)
	err = fn(txDataStore)
	return
}

// Verify interface implementations.
var (
	_ domain.AtomicExecutor = (*DataStore)(nil)
	_ domain.Repositories   = (*DataStore)(nil)
)
