package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

// CartManager mutates a customer's cart against live catalog stock. Stock is checked,
// never reserved: checkout and approval check it again.
type CartManager struct {
	carts    CartRepo
	products ProductRepo
	now      func() time.Time
}

func NewCartManager(carts CartRepo, products ProductRepo) *CartManager {
	return &CartManager{carts: carts, products: products, now: time.Now}
}

func (m *CartManager) product(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := m.products.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Product not found")
	}
	return p, err
}

// Add puts quantity units of a product in the cart, merging with an existing line.
// The merged total is validated against what is on hand now.
func (m *CartManager) Add(ctx context.Context, who domain.Identity, productID string, quantity int) error {
	if quantity < 1 {
		return domain.Errorf(domain.ErrInvalidArgument, "Quantity must be at least 1")
	}
	p, err := m.product(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > p.Quantity {
		stockRejections.WithLabelValues("cart_add").Inc()
		return domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
	}

	line := domain.CartLine{UserID: who.UserID, ProductID: p.ID, Quantity: quantity, AddedAt: m.now()}
	existing, err := m.carts.Line(ctx, who.UserID, p.ID)
	switch {
	case err == nil:
		merged := existing.Quantity + quantity
		if merged > p.Quantity {
			stockRejections.WithLabelValues("cart_add").Inc()
			return domain.Errorf(domain.ErrInsufficientStock, "Total quantity exceeds available stock")
		}
		line.Quantity = merged
		line.AddedAt = existing.AddedAt
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	return m.carts.Put(ctx, line)
}

// Update overwrites the quantity of a line that is already in the cart.
func (m *CartManager) Update(ctx context.Context, who domain.Identity, productID string, quantity int) ([]CartEntry, error) {
	if quantity < 1 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be at least 1")
	}
	p, err := m.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Quantity {
		stockRejections.WithLabelValues("cart_update").Inc()
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
	}

	existing, err := m.carts.Line(ctx, who.UserID, p.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Item not found in cart")
	}
	if err != nil {
		return nil, err
	}
	existing.Quantity = quantity
	if err := m.carts.Put(ctx, *existing); err != nil {
		return nil, err
	}
	return m.Get(ctx, who)
}

// Remove is idempotent.
func (m *CartManager) Remove(ctx context.Context, who domain.Identity, productID string) error {
	return m.carts.Remove(ctx, who.UserID, productID)
}

func (m *CartManager) Clear(ctx context.Context, who domain.Identity) error {
	return m.carts.Clear(ctx, who.UserID)
}

// Get returns the cart with products resolved, for display only.
func (m *CartManager) Get(ctx context.Context, who domain.Identity) ([]CartEntry, error) {
	lines, err := m.carts.Lines(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := m.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]CartEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, CartEntry{Product: products[l.ProductID], ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return entries, nil
}
