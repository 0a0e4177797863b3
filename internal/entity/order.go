package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusCompleted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusApproved:
		return "APPROVED"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCanceled:
		return "CANCELED"
	}
	return "UNKNOWN"
}

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCanceled
}

// Completed and Canceled are terminal: they have no entry here.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCanceled},
	StatusApproved: {StatusPending, StatusCompleted, StatusCanceled},
}

// CanTransitionTo reports whether s may move to next. Staying put is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type StockEffect int

const (
	StockNone StockEffect = iota
	StockCommit
	StockRelease
)

// StockEffectOf tells the lifecycle engine what to do with catalog stock when an order
// moves from one status to another. Only approval consumes stock and only leaving
// Approved for Pending or Canceled gives it back.
func StockEffectOf(from, to Status) StockEffect {
	switch {
	case from == StatusPending && to == StatusApproved:
		return StockCommit
	case from == StatusApproved && (to == StatusPending || to == StatusCanceled):
		return StockRelease
	}
	return StockNone
}

// OrderItem is a line of an order. UnitPrice is the product price at checkout.
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	TotalAmount decimal.Decimal
	Status      Status
	CreatedAt   time.Time
	Time        string // time of day the order was placed, e.g. "3:04:05 PM"
	UpdatedAt   time.Time
}

const TimeOfDayLayout = "3:04:05 PM"

// NewOrder builds a Pending order and computes its total from the item snapshot.
func NewOrder(userID string, items []OrderItem, now time.Time) *Order {
	return &Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: Total(items),
		Status:      StatusPending,
		CreatedAt:   now,
		Time:        now.Format(TimeOfDayLayout),
		UpdatedAt:   now,
	}
}

func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// StockLines converts the order items into catalog stock movements.
func (o *Order) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is published after checkout and after every status write.
type OrderEvent struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	From        Status          `json:"from"`
	To          Status          `json:"to"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	At          time.Time       `json:"at"`
}
