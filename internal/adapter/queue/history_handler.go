package queue

import (
	"context"
	"fmt"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

type EventRecorder interface {
	RecordEvent(ctx context.Context, ev domain.OrderEvent) error
}

// OrderHistoryHandler projects order events into the order history store.
type OrderHistoryHandler struct {
	Recorder EventRecorder
}

func NewOrderHistoryHandler(r EventRecorder) *OrderHistoryHandler {
	return &OrderHistoryHandler{Recorder: r}
}

// HandleEvent is meant to be wrapped in JSONHandler[domain.OrderEvent].
func (h *OrderHistoryHandler) HandleEvent(ctx context.Context, ev domain.OrderEvent) error {
	if ev.ID == "" || ev.OrderID == "" {
		return fmt.Errorf("%w: event without id or order id", ErrPoison)
	}
	return h.Recorder.RecordEvent(ctx, ev)
}

// Handler returns the delivery handler to register on the history queue.
func (h *OrderHistoryHandler) Handler() Handler {
	return JSONHandler[domain.OrderEvent]{HandleFunc: h.HandleEvent}
}
