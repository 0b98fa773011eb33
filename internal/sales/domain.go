package sales

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sale models one sale transaction against a product.
type Sale struct {
	ID           int64
	ProductID    int64
	SaleDate     time.Time
	QuantitySold int64
	SalePrice    decimal.Decimal // per unit, target currency
	DeliveryCost decimal.Decimal // whole sale, not prorated
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Allocation links a sale to a batch it drew stock from. LandedUnitCost is
// frozen at allocation time and is the authoritative cost for reporting,
// regardless of later batch state.
type Allocation struct {
	ID             int64
	SaleID         int64
	BatchID        int64
	UnitsTaken     int64
	LandedUnitCost decimal.Decimal
}

// SaleInput carries the fields of a create or amend request.
type SaleInput struct {
	ProductID    int64
	SaleDate     time.Time
	QuantitySold int64
	SalePrice    decimal.Decimal
	DeliveryCost decimal.Decimal
	Notes        string
}

// SaleSummary is a sale with catalogue fields and profit figures derived
// from its frozen allocations.
type SaleSummary struct {
	Sale
	ProductName string
	SKU         string
	Revenue     decimal.Decimal
	COGS        decimal.Decimal
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
}

// ListFilter narrows sale listings.
type ListFilter struct {
	ProductID int64
	From      time.Time
	To        time.Time
}

// ErrInvalidQuantity indicates a non-positive quantity sold.
var ErrInvalidQuantity = errors.New("sales: quantity sold must be positive")

// ErrMissingFields indicates absent required fields.
var ErrMissingFields = errors.New("sales: product, sale date and sale price are required")

// ErrInvalidMoney indicates negative monetary inputs.
var ErrInvalidMoney = errors.New("sales: sale price must be positive and delivery cost non-negative")

// InsufficientStockError is a business conflict, not a fault: the product
// does not hold enough unconsumed units. State is left untouched.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sales: insufficient stock, available %d, requested %d", e.Available, e.Requested)
}
