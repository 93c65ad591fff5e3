package otp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/askaruly/shop-auth/internal/otp"
)

type fakeChecker struct {
	codeExists func(ctx context.Context, code string) (bool, error)
}

func (f *fakeChecker) CodeExists(ctx context.Context, code string) (bool, error) {
	return f.codeExists(ctx, code)
}

func TestGenerate_ReturnsDigitCodeOfRequestedLength(t *testing.T) {
	g := otp.NewGenerator(&fakeChecker{
		codeExists: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}, 6)

	code, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("len(code) = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit %q", code, c)
		}
	}
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	calls := 0
	g := otp.NewGenerator(&fakeChecker{
		codeExists: func(_ context.Context, _ string) (bool, error) {
			calls++
			return calls < 3, nil // first two codes collide
		},
	}, 6)

	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("uniqueness checks = %d, want 3", calls)
	}
}

func TestGenerate_ExhaustedAfterBoundedAttempts(t *testing.T) {
	calls := 0
	g := otp.NewGenerator(&fakeChecker{
		codeExists: func(_ context.Context, _ string) (bool, error) {
			calls++
			return true, nil // everything collides
		},
	}, 6)

	_, err := g.Generate(context.Background())
	if !errors.Is(err, domain.ErrGenerationExhausted) {
		t.Fatalf("want ErrGenerationExhausted, got %v", err)
	}
	if calls != 5 {
		t.Errorf("attempts = %d, want 5", calls)
	}
}

func TestGenerate_CheckerError_Propagates(t *testing.T) {
	dbErr := errors.New("db down")
	g := otp.NewGenerator(&fakeChecker{
		codeExists: func(_ context.Context, _ string) (bool, error) { return false, dbErr },
	}, 6)

	_, err := g.Generate(context.Background())
	if !errors.Is(err, dbErr) {
		t.Errorf("want wrapped dbErr, got %v", err)
	}
}

// With a one-digit alphabet slice the code space is tiny, so repeated
// generations against a growing "taken" set must stay unique until the space
// fills up, then fail closed.
func TestGenerate_NeverReturnsTakenCode(t *testing.T) {
	taken := make(map[string]bool)
	g := otp.NewGenerator(&fakeChecker{
		codeExists: func(_ context.Context, code string) (bool, error) {
			return taken[code], nil
		},
	}, 2) // 100 possible codes

	issued := 0
	for i := 0; i < 10000; i++ {
		code, err := g.Generate(context.Background())
		if err != nil {
			if errors.Is(err, domain.ErrGenerationExhausted) {
				break // space nearly full, retries can legitimately exhaust
			}
			t.Fatalf("unexpected error: %v", err)
		}
		if taken[code] {
			t.Fatalf("generated already-taken code %q", code)
		}
		taken[code] = true
		issued++
	}

	if issued == 0 {
		t.Fatal("no codes issued at all")
	}
}
