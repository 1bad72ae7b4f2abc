package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biomarket/internal/domain"
	"biomarket/internal/store"
)

var (
	// ErrFarmExists is returned when the account already owns a farm.
	ErrFarmExists = fmt.Errorf("this account already has a farm: %w", domain.ErrAlreadyExists)
	// ErrNotFarmer is returned when the caller lacks the Farmer role.
	ErrNotFarmer = fmt.Errorf("you are not a farmer: %w", domain.ErrForbidden)
)

// Service registers and looks up farms. Each account owns at most one farm.
type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

// Register creates the caller's farm.
func (s *Service) Register(ctx context.Context, caller domain.Principal, name string) (*domain.Farm, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.HasRole(domain.RoleFarmer) {
		return nil, ErrNotFarmer
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("farm name required: %w", domain.ErrInvalidInput)
	}

	data := s.store.Session()
	if _, err := data.Farms().ByAccount(ctx, caller.Account); err == nil {
		return nil, ErrFarmExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	f := &domain.Farm{Account: caller.Account, Name: name}
	data.Farms().Add(f)
	if err := data.SaveChanges(ctx); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrFarmExists
		}
		return nil, err
	}
	return f, nil
}

// Mine returns the caller's farm.
func (s *Service) Mine(ctx context.Context, caller domain.Principal) (*domain.Farm, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f, err := s.store.Session().Farms().ByAccount(ctx, caller.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFarmNotFound
		}
		return nil, err
	}
	return f, nil
}
