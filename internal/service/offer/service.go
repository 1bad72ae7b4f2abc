package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"biomarket/internal/domain"
	"biomarket/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFarmer     = fmt.Errorf("you are not a farmer: %w", domain.ErrForbidden)
	ErrNotClient     = fmt.Errorf("you are not a client: %w", domain.ErrForbidden)
	ErrNoSuchOffer   = fmt.Errorf("such offer does not exist: %w", domain.ErrNotFound)
	ErrNoSuchProduct = fmt.Errorf("such product does not exist: %w", domain.ErrNotFound)
	ErrNoProfile     = fmt.Errorf("no client profile for this account: %w", domain.ErrNotFound)
	ErrNotOwnOffer   = fmt.Errorf("offer belongs to another farm: %w", domain.ErrForbidden)
	ErrOfferSold     = fmt.Errorf("offer already sold: %w", domain.ErrConflict)
)

// Input is the writable part of an offer.
type Input struct {
	ProductID    int64           `json:"productId"`
	Quantity     decimal.Decimal `json:"quantity"`
	ProductPhoto string          `json:"productPhoto"`
}

// Service lists, posts and sells offers.
type Service struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Service {
	return &Service{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListAvailable returns active offers nobody has bought yet, newest first.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.Offer, error) {
	return s.store.Session().Offers().Available(ctx)
}

func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]domain.Offer, error) {
	data := s.store.Session()
	if _, err := data.Products().ActiveByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchProduct
		}
		return nil, err
	}
	return data.Offers().ActiveByProduct(ctx, productID)
}

// Get returns an active offer with its buyer loaded.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Offer, error) {
	o, err := s.store.Session().Offers().ActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchOffer
		}
		return nil, err
	}
	return o, nil
}

// Create posts an offer for a product of the caller's farm.
func (s *Service) Create(ctx context.Context, caller domain.Principal, in Input) (*domain.Offer, error) {
	if err := requireRole(caller, domain.RoleFarmer, ErrNotFarmer); err != nil {
		return nil, err
	}
	in.Quantity = in.Quantity.Round(3)
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}
	in.ProductPhoto = strings.TrimSpace(in.ProductPhoto)

	data := s.store.Session()
	if _, err := ownedProduct(ctx, data, caller, in.ProductID); err != nil {
		return nil, err
	}

	o := &domain.Offer{
		Quantity:     in.Quantity,
		ProductPhoto: in.ProductPhoto,
		ProductID:    in.ProductID,
		PostDate:     s.now(),
	}
	data.Offers().Add(o)
	if err := data.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Buy records the caller as the buyer of an available offer.
func (s *Service) Buy(ctx context.Context, caller domain.Principal, id int64) (*domain.Offer, error) {
	if err := requireRole(caller, domain.RoleClient, ErrNotClient); err != nil {
		return nil, err
	}

	data := s.store.Session()
	buyer, err := clientOf(ctx, data, caller)
	if err != nil {
		return nil, err
	}
	o, err := data.Offers().ActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchOffer
		}
		return nil, err
	}
	if o.Sold() {
		return nil, ErrOfferSold
	}

	bought := s.now()
	o.BoughtByID = &buyer.ID
	o.BoughtDate = &bought
	data.Offers().Update(o)
	if err := data.SaveChanges(ctx); err != nil {
		return nil, staleOffer(err)
	}
	o.BoughtBy = buyer
	return o, nil
}

// Delete soft-deletes an unsold offer of the caller's farm.
func (s *Service) Delete(ctx context.Context, caller domain.Principal, id int64) (*domain.Offer, error) {
	if err := requireRole(caller, domain.RoleFarmer, ErrNotFarmer); err != nil {
		return nil, err
	}

	data := s.store.Session()
	o, err := data.Offers().ActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchOffer
		}
		return nil, err
	}
	if _, err := ownedProduct(ctx, data, caller, o.ProductID); err != nil {
		return nil, err
	}
	if o.Sold() {
		return nil, ErrOfferSold
	}
	data.Offers().Delete(o)
	if err := data.SaveChanges(ctx); err != nil {
		return nil, staleOffer(err)
	}
	return o, nil
}

// ListPurchases returns the active offers the caller has bought.
func (s *Service) ListPurchases(ctx context.Context, caller domain.Principal) ([]domain.Offer, error) {
	if err := requireRole(caller, domain.RoleClient, ErrNotClient); err != nil {
		return nil, err
	}
	data := s.store.Session()
	buyer, err := clientOf(ctx, data, caller)
	if err != nil {
		return nil, err
	}
	return data.Offers().ActiveBoughtBy(ctx, buyer.ID)
}

// staleOffer maps a commit that lost a race: sold in the meantime or deleted.
func staleOffer(err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return ErrOfferSold
	case errors.Is(err, domain.ErrNotFound):
		return ErrNoSuchOffer
	default:
		return err
	}
}

func requireRole(p domain.Principal, role string, forbidden error) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !p.HasRole(role) {
		return forbidden
	}
	return nil
}

func clientOf(ctx context.Context, data store.Data, caller domain.Principal) (*domain.Client, error) {
	c, err := data.Clients().ByAccount(ctx, caller.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return c, nil
}

func ownedProduct(ctx context.Context, data store.Data, caller domain.Principal, productID int64) (*domain.Product, error) {
	p, err := data.Products().ActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSuchProduct
		}
		return nil, err
	}
	farm, err := data.Farms().ByAccount(ctx, caller.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFarmNotFound
		}
		return nil, err
	}
	if p.FarmID != farm.ID {
		return nil, ErrNotOwnOffer
	}
	return p, nil
}
