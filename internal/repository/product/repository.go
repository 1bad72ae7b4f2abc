package product

import (
	"context"

	"biomarket/internal/domain"
)

// Repository is the product collection of a unit of work. Finders read
// committed state; Add, Update and Delete are staged until SaveChanges.
type Repository interface {
	// All returns every product, soft-deleted ones included.
	All(ctx context.Context) ([]domain.Product, error)
	ActiveByID(ctx context.Context, id int64) (*domain.Product, error)
	ActiveByFarm(ctx context.Context, farmID int64) ([]domain.Product, error)
	ActiveByName(ctx context.Context, name string) ([]domain.Product, error)
	ActiveByFarmAndName(ctx context.Context, farmID int64, name string) (*domain.Product, error)
	Add(p *domain.Product)
	// Update and Delete only touch active rows; a product deleted since it
	// was read makes SaveChanges fail with ErrNotFound.
	Update(p *domain.Product)
	// Delete marks p as deleted and stages the flag flip.
	Delete(p *domain.Product)
}
