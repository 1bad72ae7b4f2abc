package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"biomarket/internal/auth"
	"biomarket/internal/config"
	"biomarket/internal/db"
	"biomarket/internal/httpserver"
	"biomarket/internal/migrate"
	clientsvc "biomarket/internal/service/client"
	farmsvc "biomarket/internal/service/farm"
	offersvc "biomarket/internal/service/offer"
	productsvc "biomarket/internal/service/product"
	"biomarket/internal/store"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Printf("using in-memory store; data is lost on exit")
		if cfg.JWTSecret == config.DevJWTSecret {
			logger.Printf("AUTH_JWT_SECRET not set; signing with the development secret")
		}
		st = store.NewMemory()
	case config.StorePostgres:
		dbpool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()

		if cfg.AutoMigrate {
			if err := migrate.Apply(ctx, dbpool); err != nil {
				logger.Fatalf("apply migrations: %v", err)
			}
			logger.Printf("migrations applied")
		}
		st = store.NewPostgres(dbpool, logger)
	default:
		logger.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Store:          st,
		Tokens:         auth.NewTokens(cfg.JWTSecret),
		ProductSvc:     productsvc.New(st),
		OfferSvc:       offersvc.New(st),
		FarmSvc:        farmsvc.New(st),
		ClientSvc:      clientsvc.New(st),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
