package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

func startMongo(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	var (
		ctr *mongodb.MongoDBContainer
		err error
	)
	func() {
		// testcontainers panics when no docker daemon is reachable
		defer func() {
			if r := recover(); r != nil {
				err = assert.AnError
			}
		}()
		ctr, err = mongodb.Run(ctx, "mongo:7")
	}()
	if err != nil {
		t.Skipf("mongo container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := Connect(ctx, uri, 20*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("growcery_test")
	require.NoError(t, EnsureIndexes(ctx, db))
	return NewStore(client, db, false)
}

func TestMongoStore(t *testing.T) {
	s := startMongo(t)
	ctx := context.Background()

	apple := &domain.Product{Name: "Apple", Type: domain.ProductTypeCrop, Quantity: 5, Price: decimal.RequireFromString("1.25")}
	egg := &domain.Product{Name: "Egg", Type: domain.ProductTypePoultry, Quantity: 1, Price: decimal.RequireFromString("0.30")}
	require.NoError(t, s.Products.Create(ctx, apple))
	require.NoError(t, s.Products.Create(ctx, egg))

	t.Run("commit is all or nothing", func(t *testing.T) {
		err := s.Products.CommitStock(ctx, []domain.StockLine{
			{ProductID: apple.ID, Quantity: 2},
			{ProductID: egg.ID, Quantity: 3},
		})
		var se *domain.StockError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "Egg", se.ProductName)

		got, err := s.Products.GetByID(ctx, apple.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)
		assert.Equal(t, 0, got.QuantitySold)
		assert.Equal(t, "1.25", got.Price.String())
	})

	t.Run("commit then release clamps sold", func(t *testing.T) {
		require.NoError(t, s.Products.CommitStock(ctx, []domain.StockLine{{ProductID: apple.ID, Quantity: 2}}))
		require.NoError(t, s.Products.ReleaseStock(ctx, []domain.StockLine{{ProductID: apple.ID, Quantity: 3}}))
		got, err := s.Products.GetByID(ctx, apple.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity)
		assert.Equal(t, 0, got.QuantitySold)
	})

	t.Run("missing product", func(t *testing.T) {
		err := s.Products.CommitStock(ctx, []domain.StockLine{{ProductID: "5f1d7f1c2f8fb814b56fa181", Quantity: 1}})
		assert.ErrorIs(t, err, domain.ErrProductMissing)
		_, err = s.Products.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		require.NoError(t, s.Users.Create(ctx, &domain.User{Email: "a@b.c", Role: domain.RoleCustomer}))
		err := s.Users.Create(ctx, &domain.User{Email: "a@b.c", Role: domain.RoleCustomer})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("cart upsert", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, s.Carts.Put(ctx, domain.CartLine{UserID: "u1", ProductID: apple.ID, Quantity: 1, AddedAt: now}))
		require.NoError(t, s.Carts.Put(ctx, domain.CartLine{UserID: "u1", ProductID: apple.ID, Quantity: 4, AddedAt: now.Add(time.Hour)}))
		lines, err := s.Carts.Lines(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 4, lines[0].Quantity)
		assert.True(t, now.Equal(lines[0].AddedAt))
		require.NoError(t, s.Carts.Clear(ctx, "u1"))
	})

	t.Run("guarded status write", func(t *testing.T) {
		o := domain.NewOrder("u1", []domain.OrderItem{{ProductID: apple.ID, Quantity: 1, UnitPrice: apple.Price}}, time.Now())
		require.NoError(t, s.Orders.Create(ctx, o))

		ok, err := s.Orders.UpdateStatusIf(ctx, o.ID, domain.StatusApproved, domain.StatusCompleted, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.Orders.UpdateStatusIf(ctx, o.ID, domain.StatusPending, domain.StatusApproved, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := s.Orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, got.Status)
		assert.Equal(t, "1.25", got.TotalAmount.String())
	})

	t.Run("event append is idempotent", func(t *testing.T) {
		ev := domain.OrderEvent{ID: "ev-1", Type: domain.EventOrderCreated, OrderID: "o1", At: time.Now()}
		require.NoError(t, s.Events.Append(ctx, ev))
		require.NoError(t, s.Events.Append(ctx, ev))
		list, err := s.Events.ListByOrder(ctx, "o1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
