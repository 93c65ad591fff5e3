package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenColumns = `id, user_phone, code, is_active, is_used, used_at,
	       is_invalidated, forced_expired, created_at, updated_at`

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Issue(ctx context.Context, userPhone, code string, now time.Time) (*domain.CallbackToken, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin issue tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the owner row first. Two issuers for the same user run their
	// insert+invalidate under READ COMMITTED, where neither invalidate can
	// see the other's uncommitted token; serialized on the user row, the
	// second issuer's invalidate sees the first token committed.
	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM users WHERE phone_number = $1 FOR UPDATE`, userPhone,
	); err != nil {
		return nil, fmt.Errorf("lock user row: %w", err)
	}

	insert := `
		INSERT INTO callback_tokens (user_phone, code, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		RETURNING ` + tokenColumns

	row := tx.QueryRow(ctx, insert, userPhone, code, now)
	created, err := scanToken(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrCodeCollision
		}
		return nil, err
	}

	// Supersede every other active token of this user so at most one code
	// is live at any instant.
	invalidate := `
		UPDATE callback_tokens
		SET    is_active      = FALSE,
		       is_invalidated = TRUE,
		       updated_at     = $3
		WHERE  user_phone = $1 AND is_active AND id <> $2`

	if _, err := tx.Exec(ctx, invalidate, userPhone, created.ID, now); err != nil {
		return nil, fmt.Errorf("invalidate previous tokens: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit issue tx: %w", err)
	}
	return created, nil
}

func (r *TokenRepository) FindActiveByCode(ctx context.Context, code string) (*domain.CallbackToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM callback_tokens
		WHERE code = $1 AND is_active`

	row := r.pool.QueryRow(ctx, query, code)
	return scanToken(row)
}

func (r *TokenRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	// Conditional on is_active: of two concurrent confirms only one row
	// update succeeds, the other reports the code as gone.
	query := `
		UPDATE callback_tokens
		SET    is_active  = FALSE,
		       is_used    = TRUE,
		       used_at    = $2,
		       updated_at = $2
		WHERE  id = $1 AND is_active`

	tag, err := r.pool.Exec(ctx, query, tokenID, usedAt)
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *TokenRepository) MarkForcedExpired(ctx context.Context, tokenID string, now time.Time) error {
	query := `
		UPDATE callback_tokens
		SET    is_active      = FALSE,
		       forced_expired = TRUE,
		       updated_at     = $2
		WHERE  id = $1 AND is_active`

	tag, err := r.pool.Exec(ctx, query, tokenID, now)
	if err != nil {
		return fmt.Errorf("mark token expired: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *TokenRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM callback_tokens WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return exists, nil
}

func (r *TokenRepository) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	query := `
		UPDATE callback_tokens
		SET    is_active      = FALSE,
		       forced_expired = TRUE,
		       updated_at     = NOW()
		WHERE id IN (
			SELECT id FROM callback_tokens
			WHERE  is_active AND created_at < $1
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`

	tag, err := r.pool.Exec(ctx, query, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("expire stale tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*domain.CallbackToken, error) {
	var t domain.CallbackToken
	err := row.Scan(
		&t.ID, &t.UserPhone, &t.Code,
		&t.IsActive, &t.IsUsed, &t.UsedAt,
		&t.IsInvalidated, &t.ForcedExpired,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &t, nil
}
