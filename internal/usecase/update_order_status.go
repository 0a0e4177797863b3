package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

// UpdateOrderStatus is the order lifecycle engine. It moves an order through the
// status table in domain and reconciles catalog stock on the way:
//
//	Pending  -> Approved            commit stock (on-hand -= q, sold += q), all lines or none
//	Approved -> Pending | Canceled  release stock (on-hand += q, sold -= q)
//	anything else                   status write only
//
// The status write is guarded on the previous status, so two concurrent transitions of
// the same order cannot both reconcile stock.
type UpdateOrderStatus struct {
	orders   OrderRepo
	products ProductRepo
	resolve  resolver
	cache    OrderStatusCache // optional
	events   EventPublisher   // optional
	now      func() time.Time
}

func NewUpdateOrderStatus(orders OrderRepo, products ProductRepo, users UserRepo, cache OrderStatusCache, events EventPublisher) *UpdateOrderStatus {
	return &UpdateOrderStatus{
		orders:   orders,
		products: products,
		resolve:  resolver{products: products, users: users},
		cache:    cache,
		events:   events,
		now:      time.Now,
	}
}

func (uc *UpdateOrderStatus) Execute(ctx context.Context, orderID string, next domain.Status) (*OrderView, error) {
	if !next.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Order status must be between 0 and 3")
	}

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	prev := order.Status

	if !prev.CanTransitionTo(next) {
		return nil, domain.Errorf(domain.ErrInvalidTransition,
			"Cannot change order status from %s to %s", prev, next)
	}

	effect := domain.StockEffectOf(prev, next)
	lines := order.StockLines()

	switch effect {
	case domain.StockCommit:
		err := uc.checkStock(ctx, order)
		if err == nil {
			err = uc.products.CommitStock(ctx, lines)
		}
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				stockRejections.WithLabelValues("approve").Inc()
			}
			return nil, err
		}
	case domain.StockRelease:
		if err := uc.products.ReleaseStock(ctx, lines); err != nil {
			return nil, fmt.Errorf("release stock: %w", err)
		}
	}

	at := uc.now()
	ok, err := uc.orders.UpdateStatusIf(ctx, order.ID, prev, next, at)
	if err != nil || !ok {
		uc.undo(ctx, effect, lines)
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		return nil, domain.Errorf(domain.ErrConflict, "Order status was changed concurrently, reload and retry")
	}
	order.Status = next
	order.UpdatedAt = at

	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, order.UserID, order.ID, next); err != nil {
			logging.FromCtx(ctx).Warn("order status cache write failed", "order_id", order.ID, "err", err)
		}
	}
	if prev != next {
		orderTransitions.WithLabelValues(prev.String(), next.String()).Inc()
		publish(ctx, uc.events, domain.OrderEvent{
			Type:        domain.EventOrderStatusChanged,
			OrderID:     order.ID,
			UserID:      order.UserID,
			From:        prev,
			To:          next,
			TotalAmount: order.TotalAmount,
			At:          at,
		})
	}

	return uc.resolve.order(ctx, order, true)
}

// checkStock validates every line against the live catalog before anything is mutated,
// so the caller gets the first offending product by name.
func (uc *UpdateOrderStatus) checkStock(ctx context.Context, order *domain.Order) error {
	products, err := uc.products.GetByIDs(ctx, order.ProductIDs())
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	for _, it := range order.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return domain.Errorf(domain.ErrProductMissing, "Product not found")
		}
		if p.Quantity < it.Quantity {
			return &domain.StockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: it.Quantity}
		}
	}
	return nil
}

// undo reverses a stock effect whose status write did not land.
func (uc *UpdateOrderStatus) undo(ctx context.Context, effect domain.StockEffect, lines []domain.StockLine) {
	ctx = context.WithoutCancel(ctx)
	var err error
	switch effect {
	case domain.StockCommit:
		err = uc.products.ReleaseStock(ctx, lines)
	case domain.StockRelease:
		err = uc.products.CommitStock(ctx, lines)
	default:
		return
	}
	if err != nil {
		logging.FromCtx(ctx).Error("stock compensation failed", "effect", effect, "err", err)
	}
}
