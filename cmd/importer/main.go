package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"biomarket/internal/config"
	"biomarket/internal/db"
	"biomarket/internal/domain"
	"biomarket/internal/importer"
	offersvc "biomarket/internal/service/offer"
	productsvc "biomarket/internal/service/product"
	"biomarket/internal/store"
)

func main() {
	var (
		filePath string
		account  string
	)
	flag.StringVar(&filePath, "file", "", "Path to a name,price[,quantity,photo] CSV file")
	flag.StringVar(&account, "account", "", "Farmer account whose farm receives the products")
	flag.Parse()

	if filePath == "" || account == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	st := store.NewPostgres(pool, logger)
	farmer := domain.Principal{Account: account, Roles: []string{domain.RoleFarmer}}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productsvc.New(st), offersvc.New(st), farmer)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", res.Products, err)
	}

	fmt.Printf("Imported %d products and %d offers for %s (%d duplicates skipped) in %s\n",
		res.Products, res.Offers, account, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}
