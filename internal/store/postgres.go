package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"biomarket/internal/domain"
	"biomarket/internal/repository/changes"
	clientrepo "biomarket/internal/repository/client"
	farmrepo "biomarket/internal/repository/farm"
	offerrepo "biomarket/internal/repository/offer"
	productrepo "biomarket/internal/repository/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres opens units of work against a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *Postgres {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Postgres{pool: pool, logger: logger}
}

func (s *Postgres) Session() Data {
	pending := &changes.Set{}
	return &pgSession{
		pool:     s.pool,
		logger:   s.logger,
		pending:  pending,
		farms:    farmrepo.NewPostgres(s.pool, pending, s.logger),
		products: productrepo.NewPostgres(s.pool, pending, s.logger),
		offers:   offerrepo.NewPostgres(s.pool, pending, s.logger),
		clients:  clientrepo.NewPostgres(s.pool, pending, s.logger),
	}
}

func (s *Postgres) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("db not configured")
	}
	return s.pool.Ping(ctx)
}

type pgSession struct {
	pool     *pgxpool.Pool
	logger   *log.Logger
	pending  *changes.Set
	farms    farmrepo.Repository
	products productrepo.Repository
	offers   offerrepo.Repository
	clients  clientrepo.Repository
}

func (s *pgSession) Farms() farmrepo.Repository       { return s.farms }
func (s *pgSession) Products() productrepo.Repository { return s.products }
func (s *pgSession) Offers() offerrepo.Repository     { return s.offers }
func (s *pgSession) Clients() clientrepo.Repository   { return s.clients }

// SaveChanges flushes the pending writes in one transaction. Pending writes
// are discarded whether or not the commit succeeds.
func (s *pgSession) SaveChanges(ctx context.Context) error {
	ops := s.pending.Drain()
	if len(ops) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, op := range ops {
			if err := op.Apply(ctx, tx); err != nil {
				return fmt.Errorf("%s: %w", op.Name, translate(err))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Printf("store: save changes ops=%d error=%v", len(ops), err)
		return err
	}
	for _, op := range ops {
		if op.OnCommit != nil {
			op.OnCommit()
		}
	}
	s.logger.Printf("store: saved changes ops=%d", len(ops))
	return nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "23503":
			return domain.ErrNotFound
		}
	}
	return err
}
