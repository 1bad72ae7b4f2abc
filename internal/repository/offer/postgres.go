package offer

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

const selectColumns = `
SELECT o.id, o.quantity::text, o.product_photo, o.product_id, o.post_date, o.bought_by, o.bought_date,
       o.deleted, o.deleted_at, c.account, c.first_name, c.last_name
FROM offers o
LEFT JOIN clients c ON c.id = o.bought_by
`

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

func (r *postgresRepo) All(ctx context.Context) ([]domain.Offer, error) {
	return r.list(ctx, selectColumns+`ORDER BY o.id`)
}

func (r *postgresRepo) ActiveByID(ctx context.Context, id int64) (*domain.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx, selectColumns+`WHERE o.id = $1 AND NOT o.deleted`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("offer repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("offer repo: get id=%d error=%v", id, err)
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) Available(ctx context.Context) ([]domain.Offer, error) {
	return r.list(ctx, selectColumns+`WHERE NOT o.deleted AND o.bought_by IS NULL ORDER BY o.post_date DESC, o.id DESC`)
}

func (r *postgresRepo) ActiveByProduct(ctx context.Context, productID int64) ([]domain.Offer, error) {
	return r.list(ctx, selectColumns+`WHERE o.product_id = $1 AND NOT o.deleted ORDER BY o.post_date DESC, o.id DESC`, productID)
}

func (r *postgresRepo) ActiveBoughtBy(ctx context.Context, clientID int64) ([]domain.Offer, error) {
	return r.list(ctx, selectColumns+`WHERE o.bought_by = $1 AND NOT o.deleted ORDER BY o.bought_date DESC, o.id DESC`, clientID)
}

func (r *postgresRepo) Add(o *domain.Offer) {
	var id int64
	r.pending.Stage(changes.Op{
		Name: "insert offer",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `
INSERT INTO offers (product_id, quantity, product_photo, post_date)
VALUES ($1, $2::numeric, $3, $4)
RETURNING id
`
			return tx.QueryRow(ctx, q, o.ProductID, o.Quantity.String(), o.ProductPhoto, o.PostDate).Scan(&id)
		},
		OnCommit: func() {
			o.ID = id
			r.logger.Printf("offer repo: inserted id=%d product_id=%d", id, o.ProductID)
		},
	})
}

func (r *postgresRepo) Update(o *domain.Offer) {
	r.pending.Stage(changes.Op{
		Name: "update offer",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `
UPDATE offers
SET quantity = $2::numeric,
    product_photo = $3,
    bought_by = $4,
    bought_date = $5
WHERE id = $1 AND NOT deleted AND (bought_by IS NULL OR bought_by = $4)
`
			tag, err := tx.Exec(ctx, q, o.ID, o.Quantity.String(), o.ProductPhoto, o.BoughtByID, o.BoughtDate)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return staleOffer(ctx, tx, o.ID)
			}
			return nil
		},
	})
}

func (r *postgresRepo) Delete(o *domain.Offer) {
	now := time.Now().UTC()
	o.Deleted = true
	o.DeletedAt = &now
	r.pending.Stage(changes.Op{
		Name: "soft delete offer",
		Apply: func(ctx context.Context, tx pgx.Tx) error {
			const q = `UPDATE offers SET deleted = TRUE, deleted_at = $2 WHERE id = $1 AND NOT deleted AND bought_by IS NULL`
			tag, err := tx.Exec(ctx, q, o.ID, now)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return staleOffer(ctx, tx, o.ID)
			}
			return nil
		},
	})
}

// staleOffer explains why a guarded offer write matched no row: the offer is
// missing or soft-deleted (ErrNotFound), otherwise it was sold (ErrConflict).
func staleOffer(ctx context.Context, tx pgx.Tx, id int64) error {
	var deleted bool
	err := tx.QueryRow(ctx, `SELECT deleted FROM offers WHERE id = $1`, id).Scan(&deleted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("offer %d: %w", id, domain.ErrNotFound)
	case err != nil:
		return err
	case deleted:
		return fmt.Errorf("offer %d was deleted: %w", id, domain.ErrNotFound)
	default:
		return fmt.Errorf("offer %d already sold: %w", id, domain.ErrConflict)
	}
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Offer, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("offer repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		o         domain.Offer
		quantity  string
		account   *string
		firstName *string
		lastName  *string
	)
	if err := row.Scan(
		&o.ID,
		&quantity,
		&o.ProductPhoto,
		&o.ProductID,
		&o.PostDate,
		&o.BoughtByID,
		&o.BoughtDate,
		&o.Deleted,
		&o.DeletedAt,
		&account,
		&firstName,
		&lastName,
	); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("offer repo: decode quantity id=%d: %w", o.ID, err)
	}
	o.Quantity = d
	if o.BoughtByID != nil && account != nil {
		o.BoughtBy = &domain.Client{
			ID:        *o.BoughtByID,
			Account:   *account,
			FirstName: deref(firstName),
			LastName:  deref(lastName),
		}
	}
	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
