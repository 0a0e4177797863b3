package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

// CartEntry is a cart line with its product looked up. Product is nil when the
// product has been deleted since it was added.
type CartEntry struct {
	Product   *domain.Product
	ProductID string
	Quantity  int
}

type ResolvedItem struct {
	Product   *domain.Product // nil when the product no longer exists
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type UserSummary struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// OrderView is an order with its references resolved for display.
type OrderView struct {
	domain.Order
	User  *UserSummary // only filled for admin views
	Lines []ResolvedItem
}

type resolver struct {
	products ProductRepo
	users    UserRepo
}

func (r resolver) orders(ctx context.Context, orders []domain.Order, withUsers bool) ([]OrderView, error) {
	var productIDs, userIDs []string
	for i := range orders {
		productIDs = append(productIDs, orders[i].ProductIDs()...)
		userIDs = append(userIDs, orders[i].UserID)
	}

	products, err := r.products.GetByIDs(ctx, dedupe(productIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	var users map[string]*domain.User
	if withUsers && r.users != nil {
		users, err = r.users.GetByIDs(ctx, dedupe(userIDs))
		if err != nil {
			return nil, fmt.Errorf("resolve users: %w", err)
		}
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{Order: o, Lines: make([]ResolvedItem, 0, len(o.Items))}
		for _, it := range o.Items {
			v.Lines = append(v.Lines, ResolvedItem{
				Product:   products[it.ProductID],
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		if u, ok := users[o.UserID]; ok {
			v.User = &UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
		}
		views = append(views, v)
	}
	return views, nil
}

func (r resolver) order(ctx context.Context, o *domain.Order, withUser bool) (*OrderView, error) {
	views, err := r.orders(ctx, []domain.Order{*o}, withUser)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
