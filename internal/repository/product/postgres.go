package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"biomarket/internal/domain"
	"biomarket/internal/repository/changes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectColumns = `SELECT id, name, price::text, farm_id, deleted, deleted_at, created_at FROM products`

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

func (r *postgresRepo) All(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, selectColumns+` ORDER BY id`)
}

func (r *postgresRepo) ActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.one(ctx, selectColumns+` WHERE id = $1 AND NOT deleted`, id)
}

func (r *postgresRepo) ActiveByFarm(ctx context.Context, farmID int64) ([]domain.Product, error) {
	result, err := r.list(ctx, selectColumns+` WHERE farm_id = $1 AND NOT deleted ORDER BY id`, farmID)
	if err != nil {
		r.logger.Printf("product repo: list farm_id=%d error=%v", farmID, err)
		return nil, err
	}
	r.logger.Printf("product repo: list farm_id=%d count=%d", farmID, len(result))
	return result, nil
}

func (r *postgresRepo) ActiveByName(ctx context.Context, name string) ([]domain.Product, error) {
	return r.list(ctx, selectColumns+` WHERE name = $1 AND NOT deleted ORDER BY id`, name)
}

func (r *postgresRepo) ActiveByFarmAndName(ctx context.Context, farmID int64, name string) (*domain.Product, error) {
	return r.one(ctx, selectColumns+` WHERE farm_id = $1 AND name = $2 AND NOT deleted ORDER BY id LIMIT 1`, farmID, name)
}

func (r *postgresRepo) Add(p *domain.Product) {
	var (
		id      int64
		created time.Time
	)
	r.pending.Stage(changes.Op{
		Name: "insert product",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `
INSERT INTO products (farm_id, name, price)
VALUES ($1, $2, $3::numeric)
RETURNING id, created_at
`
			if err := tx.QueryRow(ctx, q, p.FarmID, p.Name, p.Price.String()).Scan(&id, &created); err != nil {
				r.logger.Printf("product repo: insert farm_id=%d name=%q error=%v", p.FarmID, p.Name, err)
				return err
			}
			return nil
		},
		OnCommit: func() {
			p.ID = id
			p.CreatedAt = created
			r.logger.Printf("product repo: inserted id=%d farm_id=%d", id, p.FarmID)
		},
	})
}

func (r *postgresRepo) Update(p *domain.Product) {
	r.pending.Stage(changes.Op{
		Name: "update product",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `UPDATE products SET name = $2, price = $3::numeric WHERE id = $1 AND NOT deleted`
			return execOne(ctx, tx, q, p.ID, p.Name, p.Price.String())
		},
	})
}

func (r *postgresRepo) Delete(p *domain.Product) {
	now := time.Now().UTC()
	p.Deleted = true
	p.DeletedAt = &now
	r.pending.Stage(changes.Op{
		Name: "soft delete product",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `UPDATE products SET deleted = TRUE, deleted_at = $2 WHERE id = $1 AND NOT deleted`
			return execOne(ctx, tx, q, p.ID, now)
		},
	})
}

// execOne runs a single-row write. Zero rows affected means the row is gone or
// was soft-deleted since it was read.
func execOne(ctx context.Context, tx pgx.Tx, q string, args ...any) error {
	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) one(ctx context.Context, q string, args ...any) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get error=%v", err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.FarmID, &p.Deleted, &p.DeletedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product repo: decode price id=%d: %w", p.ID, err)
	}
	p.Price = d
	return &p, nil
}
