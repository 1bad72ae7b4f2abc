package client

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"biomarket/internal/domain"
	"biomarket/internal/repository/changes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool    *pgxpool.Pool
	pending *changes.Set
	logger  *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, pending *changes.Set, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, pending: pending, logger: logger}
}

func (r *postgresRepo) All(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, account, first_name, last_name, created_at
FROM clients
ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		c, err := r.scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) ByID(ctx context.Context, id int64) (*domain.Client, error) {
	const q = `
SELECT id, account, first_name, last_name, created_at
FROM clients
WHERE id = $1
`
	return r.scanClient(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) ByAccount(ctx context.Context, account string) (*domain.Client, error) {
	const q = `
SELECT id, account, first_name, last_name, created_at
FROM clients
WHERE account = $1
LIMIT 1
`
	return r.scanClient(r.pool.QueryRow(ctx, q, account))
}

func (r *postgresRepo) Add(c *domain.Client) {
	var (
		id      int64
		created time.Time
	)
	r.pending.Stage(changes.Op{
		Name: "insert client",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `
INSERT INTO clients (account, first_name, last_name)
VALUES ($1, $2, $3)
RETURNING id, created_at
`
			return tx.QueryRow(ctx, q, c.Account, c.FirstName, c.LastName).Scan(&id, &created)
		},
		OnCommit: func() {
			c.ID = id
			c.CreatedAt = created
		},
	})
}

func (r *postgresRepo) scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	if err := row.Scan(&c.ID, &c.Account, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("client repo: scan error=%v", err)
		return nil, err
	}
	return &c, nil
}
