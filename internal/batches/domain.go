package batches

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/costing"
)

// Batch models one purchase event for a product. RemainingQty only moves
// through the ledger's consume/restore operations.
type Batch struct {
	ID           int64
	ProductID    int64
	PurchaseDate time.Time
	Quantity     int64
	RemainingQty int64
	UnitPrice    decimal.Decimal
	ExchangeRate decimal.Decimal
	Freight      decimal.Decimal
	Customs      decimal.Decimal
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CostInputs exposes the purchase-time facts used for landed cost.
func (b Batch) CostInputs() costing.BatchInputs {
	return costing.BatchInputs{
		UnitPrice:    b.UnitPrice,
		ExchangeRate: b.ExchangeRate,
		Freight:      b.Freight,
		Customs:      b.Customs,
		Quantity:     b.Quantity,
	}
}

// LandedUnitCost recomputes the current per-unit landed cost.
func (b Batch) LandedUnitCost() decimal.Decimal {
	return costing.LandedUnitCost(b.CostInputs())
}

// CreateInput describes a new purchase batch.
type CreateInput struct {
	ProductID    int64
	PurchaseDate time.Time
	Quantity     int64
	UnitPrice    decimal.Decimal
	ExchangeRate decimal.Decimal
	Freight      decimal.Decimal
	Customs      decimal.Decimal
	Notes        string
}

// ErrBatchLocked is returned when editing or deleting a batch that already
// has sale allocations against it. Costs are frozen once the first sale
// draws from a batch.
var ErrBatchLocked = errors.New("batches: batch has recorded sales")

// ErrInvalidQuantity indicates a non-positive batch quantity.
var ErrInvalidQuantity = errors.New("batches: quantity must be positive")

// ErrMissingFields indicates a batch without a product or purchase date.
var ErrMissingFields = errors.New("batches: product and purchase date are required")

// ErrInvalidMoney indicates a negative or missing monetary input.
var ErrInvalidMoney = errors.New("batches: unit price and exchange rate must be positive, costs non-negative")

// InvariantError reports a consume or restore that would leave a batch's
// remaining quantity outside [0, quantity]. Correct orchestration never
// produces one; it is a bug guard, not a user-facing conflict.
type InvariantError struct {
	Op      string
	BatchID int64
	Units   int64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("batches: %s of %d units would leave batch %d out of bounds", e.Op, e.Units, e.BatchID)
}
