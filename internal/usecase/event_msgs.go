package usecase

import domain "github.com/aq2208/growcery-api/internal/entity"

// Sent by the warehouse on Kafka when it finishes or gives up on an order.
type FulfillmentMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // e.g. "DELIVERED"
}

// TargetStatus maps the warehouse status to an order status. ok is false for
// statuses the lifecycle does not react to.
func (m FulfillmentMsg) TargetStatus() (s domain.Status, ok bool) {
	switch m.Status {
	case "DELIVERED":
		return domain.StatusCompleted, true
	case "CANCELED", "CANCELLED", "FAILED":
		return domain.StatusCanceled, true
	}
	return 0, false
}
