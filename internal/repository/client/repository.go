package client

import (
	"context"

	"biomarket/internal/domain"
)

// Repository persists and fetches buyer profiles.
type Repository interface {
	All(ctx context.Context) ([]domain.Client, error)
	ByID(ctx context.Context, id int64) (*domain.Client, error)
	ByAccount(ctx context.Context, account string) (*domain.Client, error)
	Add(c *domain.Client)
}
