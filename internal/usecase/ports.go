package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

// Stores return domain.ErrNotFound (possibly wrapped) for missing or malformed ids.

type ProductRepo interface {
	Create(ctx context.Context, p *domain.Product) error
	// Update overwrites the editable fields. QuantitySold is never written here.
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)

	// CommitStock moves each line's quantity from on-hand to sold, for all lines or none.
	// A line whose product is gone fails with ErrProductMissing; a line whose product
	// has less on hand than requested fails with *domain.StockError.
	CommitStock(ctx context.Context, lines []domain.StockLine) error
	// ReleaseStock moves quantity back from sold to on-hand, skipping missing products.
	// Sold never drops below zero.
	ReleaseStock(ctx context.Context, lines []domain.StockLine) error
}

type UserRepo interface {
	// Create fails with ErrConflict when the email is taken.
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

type CartRepo interface {
	// Lines returns the user's cart in insertion order.
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	Line(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	// Put inserts or overwrites the (user, product) line.
	Put(ctx context.Context, line domain.CartLine) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser and ListAll return newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatusIf writes to only while the order is still in from.
	// It reports false when nothing matched.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error)
}

type OrderHistoryRepo interface {
	// Append stores the event once; re-appending the same event id is a no-op.
	Append(ctx context.Context, ev domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderEvent, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderStatusCache interface {
	SetStatus(ctx context.Context, userID, orderID string, s domain.Status) error
	GetStatus(ctx context.Context, userID, orderID string) (domain.Status, bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
}

type TokenIssuer interface {
	Issue(id domain.Identity) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) (bool, error)
}
