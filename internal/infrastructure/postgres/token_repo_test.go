package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/askaruly/shop-auth/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// setupPool connects to the database named by TEST_DATABASE_URL, applies
// migrations and wipes both tables. Tests are skipped when the variable is
// unset so the suite stays runnable without a server.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := postgres.Migrate(url, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(), `TRUNCATE callback_tokens, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func countTokens(t *testing.T, pool *pgxpool.Pool, phone, condition string) int {
	t.Helper()

	var n int
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM callback_tokens WHERE user_phone = $1 AND %s`, condition,
	)
	if err := pool.QueryRow(context.Background(), query, phone).Scan(&n); err != nil {
		t.Fatalf("count tokens (%s): %v", condition, err)
	}
	return n
}

func TestTokenRepositoryIssue_SupersedesPrevious(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	phone := "+10000000007"

	if _, err := postgres.NewUserRepository(pool).Create(ctx, phone); err != nil {
		t.Fatalf("create user: %v", err)
	}

	repo := postgres.NewTokenRepository(pool)
	var lastCode string
	for i := 0; i < 5; i++ {
		lastCode = fmt.Sprintf("10000%d", i)
		if _, err := repo.Issue(ctx, phone, lastCode, time.Now()); err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}

	if n := countTokens(t, pool, phone, "is_active"); n != 1 {
		t.Errorf("active tokens = %d, want 1", n)
	}
	if n := countTokens(t, pool, phone, "is_invalidated"); n != 4 {
		t.Errorf("invalidated tokens = %d, want 4", n)
	}

	active, err := repo.FindActiveByCode(ctx, lastCode)
	if err != nil {
		t.Fatalf("find last code: %v", err)
	}
	if active.UserPhone != phone {
		t.Errorf("active token owner = %q, want %q", active.UserPhone, phone)
	}
}

func TestTokenRepositoryIssue_ConcurrentIssuersLeaveOneActive(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	phone := "+10000000008"

	if _, err := postgres.NewUserRepository(pool).Create(ctx, phone); err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Distinct codes on purpose: without the user-row lock the invalidate
	// of each transaction misses the other's uncommitted insert and both
	// tokens survive active.
	repo := postgres.NewTokenRepository(pool)
	const issuers = 8

	var wg sync.WaitGroup
	errs := make(chan error, issuers)
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			if _, err := repo.Issue(ctx, phone, code, time.Now()); err != nil {
				errs <- err
			}
		}(fmt.Sprintf("20000%d", i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent issue: %v", err)
	}

	if n := countTokens(t, pool, phone, "is_active"); n != 1 {
		t.Errorf("active tokens after %d concurrent issues = %d, want 1", issuers, n)
	}
	if n := countTokens(t, pool, phone, "is_invalidated"); n != issuers-1 {
		t.Errorf("invalidated tokens = %d, want %d", n, issuers-1)
	}
}
