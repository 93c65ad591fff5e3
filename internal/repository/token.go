package repository

import (
	"context"
	"time"

	"github.com/askaruly/shop-auth/internal/domain"
)

type TokenRepository interface {
	// Issue inserts a new active token and, in the same transaction, marks
	// every other active token of the same user invalidated. At most one
	// token per user is active once it returns. A code collision surfaces
	// as domain.ErrCodeCollision so the caller can regenerate.
	Issue(ctx context.Context, userPhone, code string, now time.Time) (*domain.CallbackToken, error)

	FindActiveByCode(ctx context.Context, code string) (*domain.CallbackToken, error)

	// MarkUsed and MarkForcedExpired transition a token out of is_active.
	// Both are conditional on the row still being active so that two
	// concurrent confirms cannot consume the same code; the loser gets
	// domain.ErrCodeNotFound.
	MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error
	MarkForcedExpired(ctx context.Context, tokenID string, now time.Time) error

	// CodeExists reports whether any token, active or not, holds the code.
	CodeExists(ctx context.Context, code string) (bool, error)

	// ExpireStale force-expires active tokens created before cutoff.
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
