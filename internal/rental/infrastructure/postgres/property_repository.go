package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/rental/domain"
)

// PropertyRepository persists Property aggregates using PostgreSQL.
type PropertyRepository struct {
	db DBTX
}

// NewPropertyRepository binds the repository to a database handle (pool or tx).
func NewPropertyRepository(db DBTX) *PropertyRepository {
	return &PropertyRepository{db: db}
}

const insertPropertySQL = `
INSERT INTO rental.properties (owner_id, name, address, city, pincode, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// Create persists a new property and returns the database-assigned ID.
func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) (domain.PropertyID, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertPropertySQL,
		int64(property.OwnerID()),
		property.Name(),
		property.Address(),
		property.City(),
		property.Pincode(),
		property.Description(),
		timeToTimestamptz(property.CreatedAt()),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return domain.PropertyID(id), nil
}

const selectPropertySQL = `
SELECT id, owner_id, name, address, city, pincode, description, created_at
FROM rental.properties`

// FindByID retrieves a property by ID.
func (r *PropertyRepository) FindByID(ctx context.Context, id domain.PropertyID) (*domain.Property, error) {
	property, err := scanProperty(r.db.QueryRow(ctx, selectPropertySQL+" WHERE id = $1", int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPropertyNotFound
	}
	return property, err
}

// ListAll retrieves every listed property, newest-first.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *PropertyRepository) ListAll(ctx context.Context) ([]*domain.Property, error) {
	return r.list(ctx, selectPropertySQL+" ORDER BY id DESC")
}

// ListByOwner retrieves the properties of one owner, newest-first.
// Query failures map to domain.ErrStoreUnavailable so the caller can degrade.
func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Property, error) {
	return r.list(ctx, selectPropertySQL+" WHERE owner_id = $1 ORDER BY id DESC", int64(ownerID))
}

func (r *PropertyRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.Property, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var properties []*domain.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}
	return properties, rows.Err()
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var (
		id, ownerID                               int64
		name, address, city, pincode, description string
		createdAt                                 pgtype.Timestamptz
	)
	if err := row.Scan(&id, &ownerID, &name, &address, &city, &pincode, &description, &createdAt); err != nil {
		return nil, err
	}

	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}

	return domain.ReconstructProperty(
		domain.PropertyID(id),
		domain.UserID(ownerID),
		name, address, city, pincode, description,
		created,
	), nil
}

// Verify interface implementation.
var _ domain.PropertyRepository = (*PropertyRepository)(nil)
