// migrate applies or rolls back the embedded SQL migrations.
// Run: go run ./cmd/migrate up|down
package main

import (
	"log"
	"os"

	"github.com/askaruly/shop-auth/internal/infrastructure/postgres"
)

func main() {
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := postgres.Migrate(dbURL, direction); err != nil {
		log.Fatalf("migrate %s: %v", direction, err)
	}
	log.Printf("migrations %s: done", direction)
}
