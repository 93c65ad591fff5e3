package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/askaruly/shop-auth/internal/domain"
)

const (
	digits = "0123456789"

	// maxAttempts bounds the collision-retry loop. With a 6-digit code and a
	// reasonable token table this is never reached in practice.
	maxAttempts = 5
)

// CodeChecker reports whether a code is already held by any existing token.
// Satisfied by repository.TokenRepository.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// Generator produces verification codes that are unique across every token
// ever issued, active or not.
type Generator struct {
	tokens CodeChecker
	length int
}

func NewGenerator(tokens CodeChecker, length int) *Generator {
	return &Generator{tokens: tokens, length: length}
}

// Generate draws random digit codes until one is unused, retrying a bounded
// number of times before failing with domain.ErrGenerationExhausted.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomDigits(g.length)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		exists, err := g.tokens.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.ErrGenerationExhausted
}

func randomDigits(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(digits)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = digits[n.Int64()]
	}
	return string(out), nil
}
