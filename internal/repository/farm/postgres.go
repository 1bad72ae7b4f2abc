package farm

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

func NewPostgres(pool *pgxpool.Pool, pending *changes.Set, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, pending: pending, logger: logger}
}

func (r *postgresRepo) All(ctx context.Context) ([]domain.Farm, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, account, name, created_at FROM farms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Farm
	for rows.Next() {
		var f domain.Farm
		if err := rows.Scan(&f.ID, &f.Account, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *postgresRepo) ByID(ctx context.Context, id int64) (*domain.Farm, error) {
	return r.one(ctx, `SELECT id, account, name, created_at FROM farms WHERE id = $1`, id)
}

func (r *postgresRepo) ByAccount(ctx context.Context, account string) (*domain.Farm, error) {
	f, err := r.one(ctx, `SELECT id, account, name, created_at FROM farms WHERE account = $1`, account)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("farm repo: account=%s not found", account)
	}
	return f, err
}

func (r *postgresRepo) Add(f *domain.Farm) {
	var (
		id      int64
		created time.Time
	)
	r.pending.Stage(changes.Op{
		Name: "insert farm",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `
INSERT INTO farms (account, name)
VALUES ($1, $2)
RETURNING id, created_at
`
			return tx.QueryRow(ctx, q, f.Account, f.Name).Scan(&id, &created)
		},
		OnCommit: func() {
			f.ID = id
			f.CreatedAt = created
		},
	})
}

func (r *postgresRepo) one(ctx context.Context, q string, args ...any) (*domain.Farm, error) {
	var f domain.Farm
	err := r.pool.QueryRow(ctx, q, args...).Scan(&f.ID, &f.Account, &f.Name, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
