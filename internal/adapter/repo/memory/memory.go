// Package memory holds mutex-guarded stores used by the dev profile and by tests.
// They honour the same contracts as the Mongo stores.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

// Store bundles one of each repository.
type Store struct {
	Products *Products
	Users    *Users
	Carts    *Carts
	Orders   *Orders
	Events   *Events
}

func NewStore() *Store {
	return &Store{
		Products: NewProducts(),
		Users:    NewUsers(),
		Carts:    NewCarts(),
		Orders:   NewOrders(),
		Events:   NewEvents(),
	}
}

func notFound(what string) error {
	return domain.Errorf(domain.ErrNotFound, "%s not found", what)
}

// Products

type Products struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Product
	order []string
}

func NewProducts() *Products {
	return &Products{byID: map[string]*domain.Product{}}
}

func (r *Products) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.byID[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *Products) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[p.ID]
	if !ok {
		return notFound("product")
	}
	sold := cur.QuantitySold
	cp := *p
	cp.QuantitySold = sold
	r.byID[p.ID] = &cp
	return nil
}

func (r *Products) Delete(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, notFound("product")
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	cp := *p
	return &cp, nil
}

func (r *Products) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, notFound("product")
	}
	cp := *p
	return &cp, nil
}

func (r *Products) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *Products) List(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out, nil
}

// CommitStock validates every line under the write lock before touching any of them.
func (r *Products) CommitStock(_ context.Context, lines []domain.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	need := map[string]int{}
	for _, l := range lines {
		need[l.ProductID] += l.Quantity
	}
	for _, l := range lines {
		p, ok := r.byID[l.ProductID]
		if !ok {
			return domain.Errorf(domain.ErrProductMissing, "Product not found")
		}
		if p.Quantity < need[l.ProductID] {
			return &domain.StockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: need[l.ProductID]}
		}
	}
	for _, l := range lines {
		p := r.byID[l.ProductID]
		p.Quantity -= l.Quantity
		p.QuantitySold += l.Quantity
	}
	return nil
}

func (r *Products) ReleaseStock(_ context.Context, lines []domain.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range lines {
		p, ok := r.byID[l.ProductID]
		if !ok {
			continue
		}
		p.Quantity += l.Quantity
		p.QuantitySold = max(0, p.QuantitySold-l.Quantity)
	}
	return nil
}

// Users

type Users struct {
	mu    sync.RWMutex
	byID  map[string]*domain.User
	order []string
}

func NewUsers() *Users {
	return &Users{byID: map[string]*domain.User{}}
}

func (r *Users) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.Errorf(domain.ErrConflict, "email already registered")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.order = append(r.order, u.ID)
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, notFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user")
}

func (r *Users) GetByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *Users) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out, nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return notFound("user")
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Carts

type Carts struct {
	mu     sync.RWMutex
	byUser map[string][]domain.CartLine
}

func NewCarts() *Carts {
	return &Carts{byUser: map[string][]domain.CartLine{}}
}

func (r *Carts) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.CartLine(nil), r.byUser[userID]...), nil
}

func (r *Carts) Line(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.byUser[userID] {
		if l.ProductID == productID {
			return &l, nil
		}
	}
	return nil, notFound("cart line")
}

func (r *Carts) Put(_ context.Context, line domain.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.byUser[line.UserID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i] = line
			return nil
		}
	}
	r.byUser[line.UserID] = append(lines, line)
	return nil
}

func (r *Carts) Remove(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.byUser[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			r.byUser[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *Carts) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
	return nil
}

// Orders

type Orders struct {
	mu   sync.RWMutex
	byID map[string]*domain.Order
	seq  []string
}

func NewOrders() *Orders {
	return &Orders{byID: map[string]*domain.Order{}}
}

func cloneOrder(o *domain.Order) domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return cp
}

func (r *Orders) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cp := cloneOrder(o)
	r.byID[o.ID] = &cp
	r.seq = append(r.seq, o.ID)
	return nil
}

func (r *Orders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, notFound("order")
	}
	cp := cloneOrder(o)
	return &cp, nil
}

// newestFirst walks insertion order backwards so orders created in the same instant
// still come out newest first.
func (r *Orders) newestFirst(keep func(*domain.Order) bool) []domain.Order {
	out := []domain.Order{}
	for i := len(r.seq) - 1; i >= 0; i-- {
		o := r.byID[r.seq[i]]
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Orders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newestFirst(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *Orders) ListAll(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newestFirst(func(*domain.Order) bool { return true }), nil
}

func (r *Orders) UpdateStatusIf(_ context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	return true, nil
}

// Events

type Events struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	byOrder map[string][]domain.OrderEvent
}

func NewEvents() *Events {
	return &Events{seen: map[string]struct{}{}, byOrder: map[string][]domain.OrderEvent{}}
}

func (r *Events) Append(_ context.Context, ev domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.ID != "" {
		if _, dup := r.seen[ev.ID]; dup {
			return nil
		}
		r.seen[ev.ID] = struct{}{}
	}
	r.byOrder[ev.OrderID] = append(r.byOrder[ev.OrderID], ev)
	return nil
}

func (r *Events) ListByOrder(_ context.Context, orderID string) ([]domain.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]domain.OrderEvent{}, r.byOrder[orderID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
