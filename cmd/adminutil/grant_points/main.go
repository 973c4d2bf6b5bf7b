package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/rewearhq/rewear/internal/clock"
	"github.com/rewearhq/rewear/internal/db"
	"github.com/rewearhq/rewear/internal/storage/postgres"
	"github.com/rewearhq/rewear/internal/wallet"
)

func main() {
	email := flag.String("email", "", "Email of the user to grant points to")
	amount := flag.Int64("amount", 0, "Number of points to grant")
	reference := flag.String("reference", "admin grant", "Ledger reference recorded with the credit")
	flag.Parse()

	if *email == "" || *amount <= 0 {
		log.Fatalf("usage: go run cmd/adminutil/grant_points/main.go -email user@example.com -amount 100")
	}

	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var userID string
	if err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, *email).Scan(&userID); err != nil {
		log.Fatalf("no user found with email: %s", *email)
	}

	svc := wallet.NewService(postgres.NewWalletRepository(pool), clock.NewSystem())
	if err := svc.Grant(ctx, userID, *amount, *reference); err != nil {
		log.Fatalf("failed to grant points: %v", err)
	}

	balance, err := svc.Balance(ctx, userID)
	if err != nil {
		log.Fatalf("granted, but failed to read balance: %v", err)
	}
	fmt.Printf("Granted %d points to %s (balance now %d).\n", *amount, *email, balance)
}
