package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biomarket/internal/domain"
	"biomarket/internal/store"
)

var (
	ErrProfileExists = fmt.Errorf("client profile already registered: %w", domain.ErrAlreadyExists)
	ErrNotClient     = fmt.Errorf("you are not a client: %w", domain.ErrForbidden)
	ErrNoProfile     = fmt.Errorf("no client profile for this account: %w", domain.ErrNotFound)
)

// RegisterInput captures the buyer profile fields.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) Register(ctx context.Context, caller domain.Principal, in RegisterInput) (*domain.Client, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.HasRole(domain.RoleClient) {
		return nil, ErrNotClient
	}
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" {
		return nil, fmt.Errorf("first name required: %w", domain.ErrInvalidInput)
	}

	data := s.store.Session()
	if _, err := data.Clients().ByAccount(ctx, caller.Account); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	c := &domain.Client{Account: caller.Account, FirstName: first, LastName: last}
	data.Clients().Add(c)
	if err := data.SaveChanges(ctx); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) Me(ctx context.Context, caller domain.Principal) (*domain.Client, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	c, err := s.store.Session().Clients().ByAccount(ctx, caller.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return c, nil
}
