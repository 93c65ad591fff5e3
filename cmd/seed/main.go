// seed inserts test accounts into the local dev database: one active user
// with a filled profile and one deactivated user for exercising the
// inactive-account path.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"github.com/askaruly/shop-auth/internal/infrastructure/postgres"
)

type accountSpec struct {
	phone  string
	email  *string
	name   *string
	active bool
}

func ptr(s string) *string { return &s }

var accounts = []accountSpec{
	{"+10000000001", ptr("seed@test.local"), ptr("Seed User"), true},
	{"+10000000002", nil, nil, true},
	{"+10000000003", ptr("blocked@test.local"), ptr("Blocked User"), false},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	for _, spec := range accounts {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (phone_number, email, name, active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (phone_number) DO UPDATE
			SET email = EXCLUDED.email, name = EXCLUDED.name,
			    active = EXCLUDED.active, updated_at = NOW()`,
			spec.phone, spec.email, spec.name, spec.active,
		)
		if err != nil {
			log.Fatalf("upsert user %s: %v", spec.phone, err)
		}
	}

	log.Printf("seeded %d users", len(accounts))
}
