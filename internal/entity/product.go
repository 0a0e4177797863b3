package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ProductType int

const (
	ProductTypeCrop    ProductType = 1
	ProductTypePoultry ProductType = 2
)

func (t ProductType) Valid() bool {
	return t == ProductTypeCrop || t == ProductTypePoultry
}

// Prices are kept well inside what the stores can hold exactly, including order totals.
const maxPriceScale = 4

var maxPrice = decimal.New(1, 12)

type Product struct {
	ID           string
	Name         string
	Description  string
	Type         ProductType
	Quantity     int // on hand
	QuantitySold int
	Price        decimal.Decimal
	Image        string
}

func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return Errorf(ErrInvalidArgument, "Product name is required")
	case !p.Type.Valid():
		return Errorf(ErrInvalidArgument, "Product type must be 1 (Crop) or 2 (Poultry)")
	case p.Quantity < 0:
		return Errorf(ErrInvalidArgument, "Product quantity cannot be negative")
	case p.QuantitySold < 0:
		return Errorf(ErrInvalidArgument, "Quantity sold cannot be negative")
	case p.Price.IsNegative():
		return Errorf(ErrInvalidArgument, "Price cannot be negative")
	case !p.Price.Equal(p.Price.Truncate(maxPriceScale)):
		return Errorf(ErrInvalidArgument, "Price can have at most %d decimal places", maxPriceScale)
	case p.Price.GreaterThanOrEqual(maxPrice):
		return Errorf(ErrInvalidArgument, "Price is too large")
	}
	return nil
}

// StockLine is a quantity of one product moved between on-hand and sold.
type StockLine struct {
	ProductID string
	Quantity  int
}
