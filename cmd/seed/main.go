package main

import (
	"context"
	"flag"
	"log"
	"os"

	"biomarket/internal/config"
	"biomarket/internal/db"
	"biomarket/internal/migrate"
	"biomarket/internal/seed"
)

func main() {
	var (
		dsn         string
		withMigrate bool
	)
	cfg := config.FromEnv()
	flag.StringVar(&dsn, "dsn", cfg.DBConnString, "Postgres DSN to seed (defaults to DB_DSN)")
	flag.BoolVar(&withMigrate, "migrate", false, "Apply schema migrations before seeding")
	flag.Parse()

	logger := log.New(os.Stdout, "[biomarket-seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if withMigrate {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatalf("seed demo marketplace: %v", err)
	}
	logger.Println("demo farms, clients, products and offers in place")
}
