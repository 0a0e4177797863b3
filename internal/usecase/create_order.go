package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

var ErrDuplicate = domain.Errorf(domain.ErrConflict, "Checkout already in progress for this idempotency key")

type CreateOrderInput struct {
	Customer       domain.Identity
	IdempotencyKey string
}

// CreateOrder turns the customer's cart into a Pending order. Stock is checked but
// not consumed; approval consumes it.
type CreateOrder struct {
	carts    CartRepo
	products ProductRepo
	orders   OrderRepo
	idem     IdempotencyStore // optional
	events   EventPublisher   // optional
	now      func() time.Time
}

func NewCreateOrder(carts CartRepo, products ProductRepo, orders OrderRepo, idem IdempotencyStore, events EventPublisher) *CreateOrder {
	return &CreateOrder{carts: carts, products: products, orders: orders, idem: idem, events: events, now: time.Now}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (order *domain.Order, err error) {
	userID := in.Customer.UserID
	useIdem := uc.idem != nil && in.IdempotencyKey != ""

	if useIdem {
		// Fast path: idempotency recall
		if id, ok, _ := uc.idem.Recall(ctx, userID, in.IdempotencyKey); ok {
			if o, err := uc.orders.GetByID(ctx, id); err == nil {
				return o, nil
			}
		}
		var ok bool
		ok, err = uc.idem.TryLock(ctx, userID, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lock: %w", err)
		}
		if !ok {
			return nil, ErrDuplicate
		}
		// a failed attempt must not block a retry with the same key
		defer func() {
			if err != nil {
				_ = uc.idem.Release(context.WithoutCancel(ctx), userID, in.IdempotencyKey)
			}
		}()
	}

	lines, err := uc.carts.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.Errorf(domain.ErrEmptyCart, "Cart is empty")
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, domain.Errorf(domain.ErrProductMissing, "Product not found in cart")
		}
		if p.Quantity < l.Quantity {
			stockRejections.WithLabelValues("checkout").Inc()
			return nil, &domain.StockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: l.Quantity}
		}
		items = append(items, domain.OrderItem{ProductID: p.ID, Quantity: l.Quantity, UnitPrice: p.Price})
	}

	order = domain.NewOrder(userID, items, uc.now())
	if err := uc.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	ordersCreated.Inc()

	if useIdem {
		if err := uc.idem.Remember(ctx, userID, in.IdempotencyKey, order.ID); err != nil {
			logging.FromCtx(ctx).Warn("idempotency remember failed", "order_id", order.ID, "err", err)
		}
	}

	// the order exists now; failing here would invite a duplicate checkout
	if err := uc.carts.Clear(ctx, userID); err != nil {
		logging.FromCtx(ctx).Error("clear cart after checkout failed", "order_id", order.ID, "user_id", userID, "err", err)
	}

	publish(ctx, uc.events, domain.OrderEvent{
		Type:        domain.EventOrderCreated,
		OrderID:     order.ID,
		UserID:      userID,
		From:        domain.StatusPending,
		To:          domain.StatusPending,
		TotalAmount: order.TotalAmount,
		At:          order.CreatedAt,
	})
	return order, nil
}

// publish is best effort: the order is already persisted.
func publish(ctx context.Context, p EventPublisher, ev domain.OrderEvent) {
	if p == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := p.Publish(ctx, ev); err != nil {
		logging.FromCtx(ctx).Warn("publish order event failed",
			"type", ev.Type, "order_id", ev.OrderID, "err", err)
	}
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Errorf(domain.ErrNotFound, "%s", msg)
	}
	return err
}
