package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

func TestLifecycle_CheckoutApproveCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tomato := f.product(t, "Tomato", 10, "2.50")
	who := f.customer(t, "ada@example.com")

	require.NoError(t, f.cart.Add(ctx, who, tomato.ID, 3))

	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "7.5", order.TotalAmount.String())

	lines, _ := f.store.Carts.Lines(ctx, who.UserID)
	assert.Empty(t, lines)
	onHand, sold := f.stock(t, tomato.ID)
	assert.Equal(t, 10, onHand)
	assert.Equal(t, 0, sold)

	view, err := f.status.Execute(ctx, order.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, view.Status)
	require.NotNil(t, view.User)
	assert.Equal(t, "ada@example.com", view.User.Email)
	onHand, sold = f.stock(t, tomato.ID)
	assert.Equal(t, 7, onHand)
	assert.Equal(t, 3, sold)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusCanceled)
	require.NoError(t, err)
	onHand, sold = f.stock(t, tomato.ID)
	assert.Equal(t, 10, onHand)
	assert.Equal(t, 0, sold)

	assert.Equal(t, []domain.EventType{
		domain.EventOrderCreated,
		domain.EventOrderStatusChanged,
		domain.EventOrderStatusChanged,
	}, f.events.types())

	st, err := f.queries.StatusOf(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, st)
}

func TestLifecycle_ApproveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	apple := f.product(t, "Apple", 5, "1.00")
	egg := f.product(t, "Egg", 2, "0.30")
	who := f.customer(t, "bo@example.com")

	require.NoError(t, f.cart.Add(ctx, who, apple.ID, 2))
	require.NoError(t, f.cart.Add(ctx, who, egg.ID, 2))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	// stock drops after checkout, before approval
	edit := *egg
	edit.Quantity = 1
	_, err = f.catalog.Update(ctx, egg.ID, edit)
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusApproved)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Insufficient stock for Egg. Available: 1, Requested: 2", se.Error())

	onHand, sold := f.stock(t, apple.ID)
	assert.Equal(t, 5, onHand)
	assert.Equal(t, 0, sold)
	got, _ := f.store.Orders.GetByID(ctx, order.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestLifecycle_ApproveWithDeletedProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Maize", 5, "1.00")
	who := f.customer(t, "cy@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	_, err = f.catalog.Delete(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrProductMissing)
}

func TestLifecycle_TerminalAndInvalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Rice", 4, "3.00")
	who := f.customer(t, "di@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 1))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, order.ID, domain.Status(7))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusApproved)
	require.NoError(t, err)
	_, err = f.status.Execute(ctx, order.ID, domain.StatusCompleted)
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, order.ID, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	// completed keeps the stock consumed
	onHand, sold := f.stock(t, p.ID)
	assert.Equal(t, 3, onHand)
	assert.Equal(t, 1, sold)

	_, err = f.status.Execute(ctx, "missing", domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycle_ReaffirmIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Yam", 4, "3.00")
	who := f.customer(t, "ed@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 2))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)
	_, err = f.status.Execute(ctx, order.ID, domain.StatusApproved)
	require.NoError(t, err)

	reaffirms := usecase.OrderTransitions.WithLabelValues("APPROVED", "APPROVED")
	before := testutil.ToFloat64(reaffirms)
	_, err = f.status.Execute(ctx, order.ID, domain.StatusApproved)
	require.NoError(t, err)
	onHand, sold := f.stock(t, p.ID)
	assert.Equal(t, 2, onHand)
	assert.Equal(t, 2, sold)
	assert.Len(t, f.events.types(), 2)
	assert.Equal(t, before, testutil.ToFloat64(reaffirms))

	// back to pending releases
	_, err = f.status.Execute(ctx, order.ID, domain.StatusPending)
	require.NoError(t, err)
	onHand, sold = f.stock(t, p.ID)
	assert.Equal(t, 4, onHand)
	assert.Equal(t, 0, sold)
}

// racingOrders lets another writer change the status between read and guarded write.
type racingOrders struct {
	usecase.OrderRepo
}

func (r racingOrders) UpdateStatusIf(context.Context, string, domain.Status, domain.Status, time.Time) (bool, error) {
	return false, nil
}

func TestLifecycle_ConcurrentWriteCompensatesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Okra", 6, "1.00")
	who := f.customer(t, "fa@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 2))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	uc := usecase.NewUpdateOrderStatus(racingOrders{f.store.Orders}, f.store.Products, f.store.Users, nil, nil)
	_, err = uc.Execute(ctx, order.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrConflict)

	onHand, sold := f.stock(t, p.ID)
	assert.Equal(t, 6, onHand)
	assert.Equal(t, 0, sold)
}

func TestLifecycle_ParallelApprovalsCommitOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Plantain", 100, "1.00")
	who := f.customer(t, "gi@example.com")
	require.NoError(t, f.cart.Add(ctx, who, p.ID, 4))
	order, err := f.checkout.Execute(ctx, usecase.CreateOrderInput{Customer: who})
	require.NoError(t, err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := f.status.Execute(ctx, order.ID, domain.StatusApproved)
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}

	onHand, sold := f.stock(t, p.ID)
	assert.Equal(t, 96, onHand)
	assert.Equal(t, 4, sold)
}
