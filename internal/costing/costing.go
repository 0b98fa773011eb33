// Package costing computes landed unit costs for purchase batches.
//
// The landed cost of a batch is always derived from the batch's stored
// purchase inputs, never cached on the row. Allocation rows freeze the value
// they saw at sale time; everything that displays a batch's current cost
// calls back into this package so both paths use identical arithmetic.
package costing

import "github.com/shopspring/decimal"

// BatchInputs are the purchase-time facts a landed cost is derived from.
// Quantity is the quantity originally received, not the remaining quantity:
// freight and customs proration is fixed at purchase time and does not shift
// as the batch depletes.
type BatchInputs struct {
	UnitPrice    decimal.Decimal // per unit, source currency
	ExchangeRate decimal.Decimal // source -> target at purchase time
	Freight      decimal.Decimal // whole batch, source currency
	Customs      decimal.Decimal // whole batch, target currency
	Quantity     int64
}

// LandedUnitCost returns the per-unit cost in target currency:
//
//	unit_price*rate + freight*rate/quantity + customs/quantity
//
// The multiplication/division order is significant and must not be
// rearranged; reports compare these values against frozen allocation costs.
func LandedUnitCost(in BatchInputs) decimal.Decimal {
	qty := decimal.NewFromInt(in.Quantity)
	unit := in.UnitPrice.Mul(in.ExchangeRate)
	freight := in.Freight.Mul(in.ExchangeRate).Div(qty)
	customs := in.Customs.Div(qty)
	return unit.Add(freight).Add(customs)
}

// TotalLandedCost returns the landed cost of the entire batch as received.
func TotalLandedCost(in BatchInputs) decimal.Decimal {
	return LandedUnitCost(in).Mul(decimal.NewFromInt(in.Quantity))
}
