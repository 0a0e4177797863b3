package usecase

import (
	"context"
	"fmt"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

type OrderQueries struct {
	orders  OrderRepo
	history OrderHistoryRepo // optional
	cache   OrderStatusCache // optional
	resolve resolver
}

func NewOrderQueries(orders OrderRepo, products ProductRepo, users UserRepo, history OrderHistoryRepo, cache OrderStatusCache) *OrderQueries {
	return &OrderQueries{
		orders:  orders,
		history: history,
		cache:   cache,
		resolve: resolver{products: products, users: users},
	}
}

// Mine lists the customer's orders, newest first.
func (q *OrderQueries) Mine(ctx context.Context, who domain.Identity) ([]OrderView, error) {
	orders, err := q.orders.ListByUser(ctx, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return q.resolve.orders(ctx, orders, false)
}

// All lists every order, newest first, with the owning user summarised.
func (q *OrderQueries) All(ctx context.Context) ([]OrderView, error) {
	orders, err := q.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return q.resolve.orders(ctx, orders, true)
}

// StatusOf returns the status of one of the customer's own orders. Orders of other
// users are reported as not found.
func (q *OrderQueries) StatusOf(ctx context.Context, who domain.Identity, orderID string) (domain.Status, error) {
	if q.cache != nil {
		s, ok, err := q.cache.GetStatus(ctx, who.UserID, orderID)
		if err != nil {
			logging.FromCtx(ctx).Warn("order status cache read failed", "order_id", orderID, "err", err)
		} else if ok {
			return s, nil
		}
	}

	o, err := q.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, notFoundAs(err, "Order not found")
	}
	if o.UserID != who.UserID {
		return 0, domain.Errorf(domain.ErrNotFound, "Order not found")
	}
	if q.cache != nil {
		_ = q.cache.SetStatus(ctx, o.UserID, o.ID, o.Status)
	}
	return o.Status, nil
}

// History returns the recorded events of an order, oldest first.
func (q *OrderQueries) History(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	if _, err := q.orders.GetByID(ctx, orderID); err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	if q.history == nil {
		return []domain.OrderEvent{}, nil
	}
	return q.history.ListByOrder(ctx, orderID)
}

// RecordEvent stores an order event in the history projection.
func (q *OrderQueries) RecordEvent(ctx context.Context, ev domain.OrderEvent) error {
	if q.history == nil {
		return nil
	}
	return q.history.Append(ctx, ev)
}
