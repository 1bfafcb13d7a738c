package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
)

// UserRepository provides persistence operations for users and their
// companion accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and its linked account in one transaction.
// A duplicate username maps to domain.ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const userQ = `
INSERT INTO users (username, first_name, last_name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, username, first_name, last_name, password_hash, created_at, updated_at;
`
	var u domain.User
	err = tx.QueryRowContext(ctx, userQ, req.Username, req.FirstName, req.LastName, req.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		// unique violation on username
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	const accountQ = `INSERT INTO accounts (user_id) VALUES ($1);`
	if _, err := tx.ExecContext(ctx, accountQ, u.ID); err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their case-normalized username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `
SELECT id, username, first_name, last_name, password_hash, created_at, updated_at
FROM users
WHERE username = $1;
`
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, username).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by their id. A malformed id is treated as
// an unknown user rather than surfacing the uuid cast error.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	const q = `
SELECT id, username, first_name, last_name, password_hash, created_at, updated_at
FROM users
WHERE id = $1::uuid;
`
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies a partial profile update. Fields left nil keep their
// stored value.
func (r *UserRepository) Update(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	const q = `
UPDATE users
SET username      = COALESCE($2, username),
    first_name    = COALESCE($3, first_name),
    last_name     = COALESCE($4, last_name),
    password_hash = COALESCE($5, password_hash),
    updated_at    = NOW()
WHERE id = $1::uuid
RETURNING id, username, first_name, last_name, password_hash, created_at, updated_at;
`
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, id, req.Username, req.FirstName, req.LastName, req.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, err
	}
	return &u, nil
}
