package farm

import (
	"context"

	"biomarket/internal/domain"
)

// Repository is the farm collection of a unit of work. Farms are never
// deleted; Add is staged until SaveChanges.
type Repository interface {
	All(ctx context.Context) ([]domain.Farm, error)
	ByID(ctx context.Context, id int64) (*domain.Farm, error)
	ByAccount(ctx context.Context, account string) (*domain.Farm, error)
	Add(f *domain.Farm)
}
