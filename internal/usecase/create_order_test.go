package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture()
	who := f.customer(t, "ja@example.com")
	_, err := f.checkout.Execute(context.Background(), usecase.CreateOrderInput{Customer: who})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.EqualError(t, err, "Cart is empty")
}

func TestCheckout_MissingProductKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Kale", 5, "1.10")
	who := f.customer(t, "ke@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))
	_, err := f.catalog.Delete(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	assert.ErrorIs(t, err, domain.ErrProductMissing)

	lines, _ := f.store.Carts.Lines(ctx, who.UserID)
	assert.Len(t, lines, 1)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Chicken", 3, "9.99")
	who := f.customer(t, "lo@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 3))

	edit := *p
	edit.Quantity = 2
	_, err := f.catalog.Update(ctx, p.ID, edit)
	require.NoError(t, err)

	_, err = f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, 3, se.Requested)
	orders, _ := f.store.Orders.ListByUser(ctx, who.UserID)
	assert.Empty(t, orders)
}

func TestCheckout_SnapshotsPrices(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Beans", 10, "1.25")
	who := f.customer(t, "mo@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 2))

	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	edit := *p
	edit.Price = edit.Price.Add(edit.Price)
	_, err = f.catalog.Update(ctx, p.ID, edit)
	require.NoError(t, err)

	views, err := f.queries.Mine(ctx, who)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, order.ID, views[0].ID)
	assert.Equal(t, "2.5", views[0].TotalAmount.String())
	assert.Equal(t, "1.25", views[0].Lines[0].UnitPrice.String())
	assert.Nil(t, views[0].User)
}

func TestCheckout_IdempotencyKeyReturnsSameOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Cassava", 10, "2.00")
	who := f.customer(t, "nu@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))

	in := usecase.CreateOrderInput{Customer: who, IdempotencyKey: "k-1"}
	first, err := f.checkout.Execute(ctx, in)
	require.NoError(t, err)
	second, err := f.checkout.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	orders, _ := f.store.Orders.ListByUser(ctx, who.UserID)
	assert.Len(t, orders, 1)
}

func TestCheckout_FailedAttemptReleasesKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Millet", 10, "2.00")
	who := f.customer(t, "ol@example.com")

	in := usecase.CreateOrderInput{Customer: who, IdempotencyKey: "k-2"}
	_, err := f.checkout.Execute(ctx, in)
	require.ErrorIs(t, err, domain.ErrEmptyCart)

	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))
	_, err = f.checkout.Execute(ctx, in)
	require.NoError(t, err)
}

func TestCheckout_KeyInFlightIsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	who := f.customer(t, "pa@example.com")
	ok, err := f.idem.TryLock(ctx, who.UserID, "k-3")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who, IdempotencyKey: "k-3"})
	assert.ErrorIs(t, err, usecase.ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

type unclearableCarts struct {
	usecase.CartRepo
}

func (unclearableCarts) Clear(context.Context, string) error { return errors.New("store down") }

func TestCheckout_CartClearFailureStillReturnsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Yam", 4, "2.00")
	who := f.customer(t, "yo@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))

	uc := usecase.NewCreateOrder(unclearableCarts{f.store.Carts}, f.store.Products, f.store.Orders, nil, f.events)
	order, err := uc.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)
	require.NotNil(t, order)

	orders, err := f.store.Orders.ListByUser(ctx, who.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, []domain.EventType{domain.EventOrderCreated}, f.events.types())
}
