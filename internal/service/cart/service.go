package cart

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type cartRepo interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	RemoveAll(ctx context.Context, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type Service struct {
	repo     cartRepo
	products productRepo
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line. The availability check here is advisory; the binding check
// happens at checkout when stock is actually reserved.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Available() < quantity {
		return nil, fmt.Errorf("%w for product %q", domain.ErrInsufficientStock, product.Name)
	}
	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// UpdateItem sets a line's quantity. Raising it is checked against stock still
// available beyond what the line already claims.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var current *domain.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			current = &cart.Lines[i]
			break
		}
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if quantity > current.Quantity && product.Available() < quantity-current.Quantity {
		return nil, fmt.Errorf("%w for product %q", domain.ErrInsufficientStock, product.Name)
	}
	if err := s.repo.SetItemQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := s.repo.RemoveAll(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}
