package usecase

import (
	"context"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

type Catalog struct {
	products ProductRepo
}

func NewCatalog(products ProductRepo) *Catalog {
	return &Catalog{products: products}
}

func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	return c.products.List(ctx)
}

func (c *Catalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return p, nil
}

// Create stores a new product. Sold always starts at zero.
func (c *Catalog) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.ID = ""
	p.QuantitySold = 0
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := c.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the editable fields of a product; quantity sold is kept.
func (c *Catalog) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ID = id
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := c.products.Update(ctx, &p); err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return c.Get(ctx, id)
}

// Delete removes a product. Carts and orders keep their references to it.
func (c *Catalog) Delete(ctx context.Context, id string) (*domain.Product, error) {
	p, err := c.products.Delete(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return p, nil
}
