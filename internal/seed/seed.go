package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type farmSeed struct {
	Account  string
	Name     string
	Products []productSeed
}

type productSeed struct {
	Name     string
	Price    string
	Quantity string
	Photo    string
}

type clientSeed struct {
	Account   string
	FirstName string
	LastName  string
}

var (
	farms = []farmSeed{
		{
			Account: "farmerA",
			Name:    "Green Acres",
			Products: []productSeed{
				{Name: "Tomato", Price: "2.50", Quantity: "40", Photo: "https://example.com/tomato.jpg"},
				{Name: "Kale", Price: "3.00", Quantity: "12.5", Photo: "https://example.com/kale.jpg"},
			},
		},
		{
			Account: "farmerB",
			Name:    "Sunny Hill",
			Products: []productSeed{
				{Name: "Tomato", Price: "2.30", Quantity: "25", Photo: "https://example.com/tomato-b.jpg"},
				{Name: "Honey", Price: "9.90", Quantity: "6", Photo: "https://example.com/honey.jpg"},
			},
		},
	}
	clients = []clientSeed{
		{Account: "alice", FirstName: "Alice", LastName: "Smith"},
		{Account: "bob", FirstName: "Bob", LastName: "Jones"},
	}
)

// Apply inserts demo farms, products, offers and clients for manual testing.
// It can be re-run: existing rows are kept and missing ones added.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, c := range clients {
			if err := upsertClient(ctx, tx, c); err != nil {
				return fmt.Errorf("upsert client %s: %w", c.Account, err)
			}
		}
		for _, f := range farms {
			farmID, err := upsertFarm(ctx, tx, f)
			if err != nil {
				return fmt.Errorf("upsert farm %s: %w", f.Account, err)
			}
			for _, p := range f.Products {
				productID, err := ensureProduct(ctx, tx, farmID, p)
				if err != nil {
					return fmt.Errorf("ensure product %s/%s: %w", f.Account, p.Name, err)
				}
				if err := ensureOffer(ctx, tx, productID, p); err != nil {
					return fmt.Errorf("ensure offer %s/%s: %w", f.Account, p.Name, err)
				}
			}
		}
		return nil
	})
}

func upsertClient(ctx context.Context, tx pgx.Tx, c clientSeed) error {
	const q = `
INSERT INTO clients (account, first_name, last_name)
VALUES ($1, $2, $3)
ON CONFLICT (account) DO UPDATE
SET first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name
`
	_, err := tx.Exec(ctx, q, c.Account, c.FirstName, c.LastName)
	return err
}

func upsertFarm(ctx context.Context, tx pgx.Tx, f farmSeed) (int64, error) {
	const q = `
INSERT INTO farms (account, name)
VALUES ($1, $2)
ON CONFLICT (account) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`
	var id int64
	if err := tx.QueryRow(ctx, q, f.Account, f.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ensureProduct returns the active product with this name on the farm,
// inserting it first when absent.
func ensureProduct(ctx context.Context, tx pgx.Tx, farmID int64, p productSeed) (int64, error) {
	const q = `
WITH existing AS (
    SELECT id FROM products WHERE farm_id = $1 AND name = $2 AND NOT deleted
), inserted AS (
    INSERT INTO products (farm_id, name, price)
    SELECT $1, $2, $3::numeric
    WHERE NOT EXISTS (SELECT 1 FROM existing)
    RETURNING id
)
SELECT id FROM inserted
UNION ALL
SELECT id FROM existing
LIMIT 1
`
	var id int64
	if err := tx.QueryRow(ctx, q, farmID, p.Name, p.Price).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureOffer(ctx context.Context, tx pgx.Tx, productID int64, p productSeed) error {
	const q = `
INSERT INTO offers (product_id, quantity, product_photo)
SELECT $1, $2::numeric, $3
WHERE NOT EXISTS (SELECT 1 FROM offers WHERE product_id = $1 AND NOT deleted)
`
	_, err := tx.Exec(ctx, q, productID, p.Quantity, p.Photo)
	return err
}
