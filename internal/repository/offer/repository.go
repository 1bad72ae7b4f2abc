package offer

import (
	"context"

	"biomarket/internal/domain"
)

// Repository is the offer collection of a unit of work. Finders return the
// buyer (when sold) on Offer.BoughtBy.
type Repository interface {
	// All returns every offer, soft-deleted ones included.
	All(ctx context.Context) ([]domain.Offer, error)
	ActiveByID(ctx context.Context, id int64) (*domain.Offer, error)
	Available(ctx context.Context) ([]domain.Offer, error)
	ActiveByProduct(ctx context.Context, productID int64) ([]domain.Offer, error)
	ActiveBoughtBy(ctx context.Context, clientID int64) ([]domain.Offer, error)
	Add(o *domain.Offer)
	// Update stages quantity, photo and purchase fields. An offer that was
	// already sold to someone else makes SaveChanges fail with ErrConflict; one
	// deleted in the meantime fails with ErrNotFound.
	Update(o *domain.Offer)
	// Delete soft-deletes an unsold offer. A sold offer fails with ErrConflict.
	Delete(o *domain.Offer)
}
