package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "2.50", "3.1416", "999999999999.9999", "1234567890123456789012345678901234"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err, s)
		back, err := fromDecimal128(v)
		require.NoError(t, err, s)
		assert.True(t, back.Equal(d), "%s came back as %s", s, back)
	}
}

func TestDecimal128RejectsUnrepresentable(t *testing.T) {
	for _, s := range []string{
		"12345678901234567890123456789012345.5",
		"0.1234567890123456789012345678901234567",
	} {
		_, err := toDecimal128(decimal.RequireFromString(s))
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, s)
	}
}

func TestCreateRejectsUnrepresentableAmounts(t *testing.T) {
	ctx := context.Background()
	huge := decimal.RequireFromString("12345678901234567890123456789012345.5")

	// both fail before any collection is touched
	products := &MongoProductRepo{}
	err := products.Create(ctx, &domain.Product{Name: "Rice", Type: domain.ProductTypeCrop, Price: huge})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	orders := &MongoOrderRepo{}
	o := domain.NewOrder("u1", []domain.OrderItem{{ProductID: "p1", Quantity: 3, UnitPrice: huge}}, time.Now())
	err = orders.Create(ctx, o)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Empty(t, o.ID)
}
