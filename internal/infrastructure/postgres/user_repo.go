package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `
		SELECT phone_number, email, name, active, created_at, updated_at
		FROM users
		WHERE phone_number = $1`

	row := r.pool.QueryRow(ctx, query, phone)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, phone string) (*domain.User, error) {
	// ON CONFLICT covers two clients racing the first entry request for the
	// same phone number; both end up with the same row.
	query := `
		INSERT INTO users (phone_number)
		VALUES ($1)
		ON CONFLICT (phone_number) DO UPDATE SET updated_at = users.updated_at
		RETURNING phone_number, email, name, active, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, phone)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error) {
	// COALESCE keeps the stored value for fields the caller did not send.
	query := `
		UPDATE users
		SET    email      = COALESCE($2, email),
		       name       = COALESCE($3, name),
		       updated_at = NOW()
		WHERE  phone_number = $1
		RETURNING phone_number, email, name, active, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, phone, update.Email, update.Name)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.PhoneNumber, &u.Email, &u.Name, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
