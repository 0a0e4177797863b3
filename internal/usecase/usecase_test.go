package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/growcery-api/internal/adapter/repo/memory"
	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (fakeHasher) Check(h, p string) (bool, error) {
	if !strings.HasPrefix(h, "h:") {
		return false, errors.New("corrupt hash")
	}
	return h == "h:"+p, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(id domain.Identity) (string, error) {
	return "token-" + id.UserID + "-" + string(id.Role), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.EventType
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memCache struct {
	mu sync.Mutex
	m  map[string]domain.Status
}

func newMemCache() *memCache { return &memCache{m: map[string]domain.Status{}} }

func (c *memCache) SetStatus(_ context.Context, userID, orderID string, s domain.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[userID+"/"+orderID] = s
	return nil
}

func (c *memCache) GetStatus(_ context.Context, userID, orderID string) (domain.Status, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[userID+"/"+orderID]
	return s, ok, nil
}

type memIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (s *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[scope+key] {
		return false, nil
	}
	s.locks[scope+key] = true
	return true, nil
}

func (s *memIdem) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, scope+key)
	return nil
}

func (s *memIdem) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+key] = value
	return nil
}

func (s *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+key]
	return v, ok, nil
}

type fixture struct {
	store    *memory.Store
	events   *recordingPublisher
	cache    *memCache
	idem     *memIdem
	catalog  *usecase.Catalog
	accounts *usecase.Accounts
	cart     *usecase.CartManager
	checkout *usecase.CreateOrder
	status   *usecase.UpdateOrderStatus
	queries  *usecase.OrderQueries
}

func newFixture() *fixture {
	f := &fixture{
		store:  memory.NewStore(),
		events: &recordingPublisher{},
		cache:  newMemCache(),
		idem:   newMemIdem(),
	}
	s := f.store
	f.catalog = usecase.NewCatalog(s.Products)
	f.accounts = usecase.NewAccounts(s.Users, s.Carts, fakeHasher{}, fakeTokens{})
	f.cart = usecase.NewCartManager(s.Carts, s.Products)
	f.checkout = usecase.NewCreateOrder(s.Carts, s.Products, s.Orders, f.idem, f.events)
	f.status = usecase.NewUpdateOrderStatus(s.Orders, s.Products, s.Users, f.cache, f.events)
	f.queries = usecase.NewOrderQueries(s.Orders, s.Products, s.Users, s.Events, f.cache)
	return f
}

func (f *fixture) product(t *testing.T, name string, qty int, price string) *domain.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), domain.Product{
		Name:     name,
		Type:     domain.ProductTypeCrop,
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T, email string) domain.Identity {
	t.Helper()
	_, err := f.accounts.Signup(context.Background(), usecase.SignupInput{
		FirstName: "Ada", LastName: "Obi", Email: email, Password: "secret",
	})
	require.NoError(t, err)
	u, err := f.store.Users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) stock(t *testing.T, id string) (onHand, sold int) {
	t.Helper()
	p, err := f.store.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity, p.QuantitySold
}
