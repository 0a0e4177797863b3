package kafka

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type StatusUpdater interface {
	Execute(ctx context.Context, orderID string, next domain.Status) (*usecase.OrderView, error)
}

// FulfillmentHandler applies warehouse outcomes to orders through the lifecycle engine,
// so stock is reconciled the same way as for an admin update.
type FulfillmentHandler struct {
	Orders StatusUpdater
}

func NewFulfillmentHandler(orders StatusUpdater) *FulfillmentHandler {
	return &FulfillmentHandler{Orders: orders}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, msg usecase.FulfillmentMsg) error {
	next, ok := msg.TargetStatus()
	if !ok || msg.OrderID == "" {
		return fmt.Errorf("%w: unsupported fulfilment status %q", ErrSkip, msg.Status)
	}
	_, err := h.Orders.Execute(ctx, msg.OrderID, next)
	if err != nil && isBusiness(err) {
		return fmt.Errorf("%w: %v", ErrSkip, err)
	}
	return err
}

// Rejections the lifecycle engine will repeat on every retry. Conflict is not among
// them: a reload usually succeeds.
func isBusiness(err error) bool {
	for _, kind := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidArgument,
		domain.ErrInsufficientStock,
		domain.ErrProductMissing,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
