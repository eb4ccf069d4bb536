package catalog

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Stock       int    `json:"stock"`
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"priceCents"`
	Stock       *int    `json:"stock"`
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]domain.Product, int, error) {
	return s.repo.List(ctx, productrepo.ListFilter{Search: search, Limit: limit, Offset: offset})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	return s.repo.Create(ctx, productrepo.CreateInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if err := validateName(trimmed); err != nil {
			return nil, err
		}
		in.Name = &trimmed
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	return s.repo.Update(ctx, id, productrepo.UpdateInput{
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateName(name string) error {
	n := len(strings.TrimSpace(name))
	if n < 2 {
		return fmt.Errorf("%w: product name must be at least 2 characters", domain.ErrValidation)
	}
	if n > 100 {
		return fmt.Errorf("%w: product name cannot exceed 100 characters", domain.ErrValidation)
	}
	return nil
}
