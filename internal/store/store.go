// Package store provides the unit-of-work façade over the marketplace tables.
package store

import (
	"context"

	clientrepo "biomarket/internal/repository/client"
	farmrepo "biomarket/internal/repository/farm"
	offerrepo "biomarket/internal/repository/offer"
	productrepo "biomarket/internal/repository/product"
)

// Data is one unit of work. Finders read committed state; writes made through
// the collections are held until SaveChanges applies all of them or none.
type Data interface {
	Farms() farmrepo.Repository
	Products() productrepo.Repository
	Offers() offerrepo.Repository
	Clients() clientrepo.Repository
	SaveChanges(ctx context.Context) error
}

// Store opens units of work. Callers open one per request.
type Store interface {
	Session() Data
	Ping(ctx context.Context) error
}
