package domain

import (
	"errors"
	"time"
)

var (
	ErrCodeNotFound      = errors.New("no active code matches")
	ErrCodeOwnerMismatch = errors.New("code belongs to a different user")
	ErrCodeExpired       = errors.New("code expired")
	ErrCodeCollision     = errors.New("code already exists")

	ErrGenerationExhausted = errors.New("could not generate a unique code")

	ErrTokenExpired     = errors.New("bearer token expired")
	ErrInvalidSignature = errors.New("bearer token signature mismatch")
	ErrMalformedToken   = errors.New("bearer token malformed")
)

// CallbackToken is one issued verification code and its lifecycle state.
// A token leaves is_active through exactly one of used, invalidated or
// forced_expired, and never returns. Rows are kept forever as an audit trail.
type CallbackToken struct {
	ID        string
	UserPhone string
	Code      string

	IsActive      bool
	IsUsed        bool
	UsedAt        *time.Time
	IsInvalidated bool
	ForcedExpired bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
