package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStock is one row of the stock snapshot: a product with the value
// of everything still sitting on the shelf.
type ProductStock struct {
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku,omitempty"`
	StockOnHand    int64           `json:"stock_on_hand"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	AvgLandedCost  decimal.Decimal `json:"avg_landed_cost"`
	BatchCount     int64           `json:"batch_count"`
}

// Snapshot totals the per-product rows.
type Snapshot struct {
	Products   []ProductStock  `json:"products"`
	TotalUnits int64           `json:"total_units"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// BatchBreakdown is one batch of a product in consumption order.
type BatchBreakdown struct {
	BatchID        int64           `json:"batch_id"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	Quantity       int64           `json:"quantity"`
	RemainingQty   int64           `json:"remaining_qty"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
	RemainingValue decimal.Decimal `json:"remaining_value"`
}
