package repository

import (
	"context"

	"github.com/askaruly/shop-auth/internal/domain"
)

// UseCase depends on interfaces, not concrete implementations.
// This way we get: 1) can swap DB later without touching usecase 2) We can pass a fake implementation in tests
type UserRepository interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, phone string) (*domain.User, error)
	UpdateProfile(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error)
}
