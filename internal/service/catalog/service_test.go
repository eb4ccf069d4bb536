package catalog

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type stubProductRepo struct {
	products  []domain.Product
	created   *productrepo.CreateInput
	updated   *productrepo.UpdateInput
	deletedID string
}

func (s *stubProductRepo) List(_ context.Context, _ productrepo.ListFilter) ([]domain.Product, int, error) {
	return s.products, len(s.products), nil
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductRepo) Create(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	s.created = &in
	return &domain.Product{ID: "prod-1", Name: in.Name, PriceCents: in.PriceCents, Stock: in.Stock}, nil
}

func (s *stubProductRepo) Update(_ context.Context, id string, in productrepo.UpdateInput) (*domain.Product, error) {
	s.updated = &in
	return &domain.Product{ID: id}, nil
}

func (s *stubProductRepo) Delete(_ context.Context, id string) error {
	s.deletedID = id
	return nil
}

func (s *stubProductRepo) Upsert(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	return &domain.Product{Name: in.Name}, nil
}

func TestCreateValidation(t *testing.T) {
	repo := &stubProductRepo{}
	svc := New(repo)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"short name", CreateInput{Name: "x", PriceCents: 100, Stock: 1}},
		{"long name", CreateInput{Name: strings.Repeat("a", 101), PriceCents: 100, Stock: 1}},
		{"negative price", CreateInput{Name: "Widget", PriceCents: -1, Stock: 1}},
		{"negative stock", CreateInput{Name: "Widget", PriceCents: 100, Stock: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.in); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
	if repo.created != nil {
		t.Fatal("invalid input must never reach the repository")
	}
}

func TestCreateTrimsInput(t *testing.T) {
	repo := &stubProductRepo{}
	svc := New(repo)

	p, err := svc.Create(context.Background(), CreateInput{Name: "  Widget  ", Description: " nice ", PriceCents: 100, Stock: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created.Name != "Widget" || repo.created.Description != "nice" {
		t.Fatalf("input not trimmed: %+v", repo.created)
	}
	if p.ID == "" {
		t.Fatal("created product must carry an id")
	}
}

func TestUpdatePartial(t *testing.T) {
	repo := &stubProductRepo{}
	svc := New(repo)

	price := int64(250)
	if _, err := svc.Update(context.Background(), "prod-1", UpdateInput{PriceCents: &price}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updated.Name != nil || repo.updated.PriceCents == nil || *repo.updated.PriceCents != 250 {
		t.Fatalf("unexpected update input: %+v", repo.updated)
	}

	bad := int64(-1)
	if _, err := svc.Update(context.Background(), "prod-1", UpdateInput{PriceCents: &bad}); err == nil {
		t.Fatal("negative price must be rejected")
	}
}

func TestDelete(t *testing.T) {
	repo := &stubProductRepo{}
	svc := New(repo)
	if err := svc.Delete(context.Background(), "prod-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deletedID != "prod-9" {
		t.Fatalf("deleted id = %q", repo.deletedID)
	}
}
