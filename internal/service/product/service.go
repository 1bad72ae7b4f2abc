package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"biomarket/internal/domain"
	"biomarket/internal/store"
	"github.com/shopspring/decimal"
)

const maxNameLength = 100

var (
	ErrNotFarmer      = fmt.Errorf("you are not a farmer: %w", domain.ErrForbidden)
	ErrInvalidID      = fmt.Errorf("product does not exist - invalid id: %w", domain.ErrNotFound)
	ErrInvalidName    = fmt.Errorf("product does not exist - invalid name: %w", domain.ErrNotFound)
	ErrNoSuchProduct  = fmt.Errorf("such product does not exist: %w", domain.ErrNotFound)
	ErrDuplicateName  = fmt.Errorf("you had already added this product: %w", domain.ErrAlreadyExists)
	ErrNotOwnProduct  = fmt.Errorf("product belongs to another farm: %w", domain.ErrForbidden)
	errAuthentication = fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated)
)

// Input is the writable part of a product.
type Input struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Service implements the product operations over a unit-of-work store.
type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

// RequireFarmer is the authorization gate shared by every product mutation.
func RequireFarmer(p domain.Principal) error {
	if !p.Authenticated() {
		return errAuthentication
	}
	if !p.HasRole(domain.RoleFarmer) {
		return ErrNotFarmer
	}
	return nil
}

// ListMine returns the active products of the caller's farm.
func (s *Service) ListMine(ctx context.Context, caller domain.Principal) ([]domain.Product, error) {
	if !caller.Authenticated() {
		return nil, errAuthentication
	}
	data := s.store.Session()
	farm, err := farmOf(ctx, data, caller)
	if err != nil {
		return nil, err
	}
	return data.Products().ActiveByFarm(ctx, farm.ID)
}

func (s *Service) ByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.Session().Products().ActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidID
		}
		return nil, err
	}
	return p, nil
}

// ByName returns every active product with exactly this name; names are only
// unique within a farm.
func (s *Service) ByName(ctx context.Context, name string) ([]domain.Product, error) {
	products, err := s.store.Session().Products().ActiveByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrInvalidName
	}
	return products, nil
}

// Update overwrites name and price of an active product of the caller's farm.
func (s *Service) Update(ctx context.Context, caller domain.Principal, id int64, in Input) (*domain.Product, error) {
	if err := RequireFarmer(caller); err != nil {
		return nil, err
	}
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	data := s.store.Session()
	existing, err := ownedProduct(ctx, data, caller, id)
	if err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Price = in.Price
	data.Products().Update(existing)
	if err := data.SaveChanges(ctx); err != nil {
		return nil, staleProduct(err)
	}
	return existing, nil
}

// Delete soft-deletes an active product of the caller's farm.
func (s *Service) Delete(ctx context.Context, caller domain.Principal, id int64) (*domain.Product, error) {
	if err := RequireFarmer(caller); err != nil {
		return nil, err
	}

	data := s.store.Session()
	existing, err := ownedProduct(ctx, data, caller, id)
	if err != nil {
		return nil, err
	}
	data.Products().Delete(existing)
	if err := data.SaveChanges(ctx); err != nil {
		return nil, staleProduct(err)
	}
	return existing, nil
}

// Create adds a product to the caller's farm and returns its id.
func (s *Service) Create(ctx context.Context, caller domain.Principal, in Input) (int64, error) {
	if err := RequireFarmer(caller); err != nil {
		return 0, err
	}
	in, err := normalize(in)
	if err != nil {
		return 0, err
	}

	data := s.store.Session()
	farm, err := farmOf(ctx, data, caller)
	if err != nil {
		return 0, err
	}
	_, err = data.Products().ActiveByFarmAndName(ctx, farm.ID, in.Name)
	switch {
	case err == nil:
		return 0, ErrDuplicateName
	case !errors.Is(err, domain.ErrNotFound):
		return 0, err
	}

	p := &domain.Product{
		Name:   in.Name,
		Price:  in.Price,
		FarmID: farm.ID,
	}
	data.Products().Add(p)
	if err := data.SaveChanges(ctx); err != nil {
		return 0, err
	}
	return p.ID, nil
}

func farmOf(ctx context.Context, data store.Data, caller domain.Principal) (*domain.Farm, error) {
	farm, err := data.Farms().ByAccount(ctx, caller.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFarmNotFound
		}
		return nil, err
	}
	return farm, nil
}

func ownedProduct(ctx context.Context, data store.Data, caller domain.Principal, id int64) (*domain.Product, error) {
	existing, err := data.Products().ActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchProduct
		}
		return nil, err
	}
	farm, err := farmOf(ctx, data, caller)
	if err != nil {
		return nil, err
	}
	if existing.FarmID != farm.ID {
		return nil, ErrNotOwnProduct
	}
	return existing, nil
}

// staleProduct reports a product deleted between read and commit the same way
// as one that was never there.
func staleProduct(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNoSuchProduct
	}
	return err
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("name required: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return in, fmt.Errorf("name must be at most %d characters: %w", maxNameLength, domain.ErrInvalidInput)
	}
	in.Price = in.Price.Round(2)
	if !in.Price.IsPositive() {
		return in, fmt.Errorf("price must be positive: %w", domain.ErrInvalidInput)
	}
	return in, nil
}
