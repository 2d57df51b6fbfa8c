package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/rental/domain"
)

// UserRepository persists User aggregates using PostgreSQL.
type UserRepository struct {
	db DBTX
}

// NewUserRepository binds the repository to a database handle (pool or tx).
// Callers control transactional scope by passing a pgx.Tx when participating in a unit of work.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const insertUserSQL = `
INSERT INTO rental.users (role, name, email, phone, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

// Create persists a new user and returns the database-assigned ID.
// Email uniqueness is enforced by the users_email_key constraint; violations
// map to domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertUserSQL,
		string(user.Role()),
		user.Name(),
		user.Email(),
		user.Phone(),
		user.PasswordHash(),
		timeToTimestamptz(user.CreatedAt()),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, domain.ErrEmailTaken
		}
		return 0, err
	}
	return domain.UserID(id), nil
}

const selectUserSQL = `
SELECT id, role, name, email, phone, password_hash, created_at
FROM rental.users`

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserSQL+" WHERE id = $1", int64(id)))
}

// FindByEmail retrieves a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUserSQL+" WHERE email = $1", email))
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		id                             int64
		role, name, email, phone, hash string
		createdAt                      pgtype.Timestamptz
	)
	err := row.Scan(&id, &role, &name, &email, &phone, &hash, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role: %v", domain.ErrCorruptData, err)
	}
	created, err := timestamptzToTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at: %v", domain.ErrCorruptData, err)
	}

	return domain.ReconstructUser(domain.UserID(id), parsedRole, name, email, phone, hash, created), nil
}

// Verify interface implementation.
var _ domain.UserRepository = (*UserRepository)(nil)
