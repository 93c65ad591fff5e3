package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/askaruly/shop-auth/internal/metrics"
	"github.com/askaruly/shop-auth/internal/repository"
	"github.com/askaruly/shop-auth/internal/sms"
)

const (
	defaultCodeTTL = 120 * time.Second

	// maxIssueAttempts bounds retries when an insert loses the race on the
	// code unique index after the pre-insert uniqueness probe passed.
	maxIssueAttempts = 3
)

// codeGenerator is the subset of otp.Generator the usecase needs.
type codeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// tokenIssuer is the subset of jwt.Issuer the usecase needs.
type tokenIssuer interface {
	Encode(phone string) (string, error)
}

type AuthUsecase struct {
	users   repository.UserRepository
	tokens  repository.TokenRepository
	codes   codeGenerator
	sms     sms.Sender
	issuer  tokenIssuer
	logger  *slog.Logger
	codeTTL time.Duration
	now     func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	codes codeGenerator,
	smsSender sms.Sender,
	issuer tokenIssuer,
	logger *slog.Logger,
	codeTTL time.Duration,
) *AuthUsecase {
	if codeTTL <= 0 {
		codeTTL = defaultCodeTTL
	}
	return &AuthUsecase{
		users:   users,
		tokens:  tokens,
		codes:   codes,
		sms:     smsSender,
		issuer:  issuer,
		logger:  logger.With("component", "auth_usecase"),
		codeTTL: codeTTL,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use it to step past code expiry.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

// RequestCode finds or creates the account for the phone number, issues a
// fresh verification code superseding any previous one, and dispatches it
// over SMS. Delivery failure is reported out-of-band (log + counter); the
// code is already valid, so the call still succeeds.
func (u *AuthUsecase) RequestCode(ctx context.Context, phone string) error {
	registered := true
	user, err := u.users.FindByPhone(ctx, phone)
	if errors.Is(err, domain.ErrUserNotFound) {
		registered = false
		user, err = u.users.Create(ctx, phone)
	}
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	token, err := u.issueToken(ctx, user.PhoneNumber)
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}
	metrics.CodesIssuedTotal.Inc()

	body := fmt.Sprintf("%s is your verification code to login to the shop.", token.Code)
	if !registered {
		body = fmt.Sprintf("%s is your verification code to create account and login to the shop.", token.Code)
	}
	if err := u.sms.Send(ctx, user.PhoneNumber, body); err != nil {
		metrics.SMSSendFailuresTotal.Inc()
		u.logger.WarnContext(ctx, "sms dispatch failed", "error", err)
	}
	return nil
}

// issueToken generates a globally unique code and writes the new token,
// retrying when a concurrent insert claims the same code first.
func (u *AuthUsecase) issueToken(ctx context.Context, phone string) (*domain.CallbackToken, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := u.codes.Generate(ctx)
		if err != nil {
			return nil, err
		}

		token, err := u.tokens.Issue(ctx, phone, code, u.now())
		if errors.Is(err, domain.ErrCodeCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return token, nil
	}
	return nil, domain.ErrGenerationExhausted
}

// ConfirmCode validates a presented code and exchanges it for a signed
// bearer token. The code is consumed exactly once: expiry and use both
// transition the token out of is_active atomically, so a second confirm
// with the same code fails with ErrCodeNotFound.
func (u *AuthUsecase) ConfirmCode(ctx context.Context, phone, code string) (string, error) {
	user, err := u.users.FindByPhone(ctx, phone)
	if err != nil {
		u.countConfirm(err)
		return "", err
	}
	if !user.Active {
		u.countConfirm(domain.ErrUserInactive)
		return "", domain.ErrUserInactive
	}

	token, err := u.tokens.FindActiveByCode(ctx, code)
	if err != nil {
		u.countConfirm(err)
		return "", err
	}

	if token.UserPhone != user.PhoneNumber {
		// The code is real but belongs to someone else. Leave it untouched.
		u.countConfirm(domain.ErrCodeOwnerMismatch)
		return "", domain.ErrCodeOwnerMismatch
	}

	now := u.now()
	if now.Sub(token.CreatedAt) > u.codeTTL {
		if err := u.tokens.MarkForcedExpired(ctx, token.ID, now); err != nil && !errors.Is(err, domain.ErrCodeNotFound) {
			return "", fmt.Errorf("expire token: %w", err)
		}
		u.countConfirm(domain.ErrCodeExpired)
		return "", domain.ErrCodeExpired
	}

	// Conditional write: if another confirm beat us to the token, fail
	// closed instead of authenticating on consumed state.
	if err := u.tokens.MarkUsed(ctx, token.ID, now); err != nil {
		u.countConfirm(err)
		return "", err
	}

	signed, err := u.issuer.Encode(user.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("sign bearer token: %w", err)
	}
	u.countConfirm(nil)
	return signed, nil
}

// Profile returns the account a decoded bearer token points at.
func (u *AuthUsecase) Profile(ctx context.Context, phone string) (*domain.User, error) {
	return u.users.FindByPhone(ctx, phone)
}

// UpdateProfile applies a partial update; only email and name are mutable.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error) {
	return u.users.UpdateProfile(ctx, phone, update)
}

func (u *AuthUsecase) countConfirm(err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		outcome = "user_not_found"
	case errors.Is(err, domain.ErrUserInactive):
		outcome = "user_inactive"
	case errors.Is(err, domain.ErrCodeNotFound):
		outcome = "code_not_found"
	case errors.Is(err, domain.ErrCodeOwnerMismatch):
		outcome = "owner_mismatch"
	case errors.Is(err, domain.ErrCodeExpired):
		outcome = "code_expired"
	default:
		outcome = "error"
	}
	metrics.ConfirmTotal.WithLabelValues(outcome).Inc()
}
