package reports

import (
	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/inventory"
)

// Summary is the profit and loss rollup over a date range.
type Summary struct {
	SaleCount      int64           `json:"sale_count"`
	UnitsSold      int64           `json:"units_sold"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCOGS      decimal.Decimal `json:"total_cogs"`
	TotalDelivery  decimal.Decimal `json:"total_delivery"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	GrossMarginPct decimal.Decimal `json:"gross_margin_pct"`
	NetMarginPct   decimal.Decimal `json:"net_margin_pct"`
}

// ProductReport is per-product performance over a date range.
type ProductReport struct {
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku,omitempty"`
	SaleCount      int64           `json:"sale_count"`
	UnitsSold      int64           `json:"units_sold"`
	Revenue        decimal.Decimal `json:"revenue"`
	COGS           decimal.Decimal `json:"cogs"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	DeliveryCost   decimal.Decimal `json:"delivery_costs"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	GrossMarginPct decimal.Decimal `json:"gross_margin_pct"`
	NetMarginPct   decimal.Decimal `json:"net_margin_pct"`
}

// Dashboard bundles the landing-page figures into one response.
type Dashboard struct {
	Summary   Summary            `json:"summary"`
	Products  []ProductReport    `json:"products"`
	Inventory inventory.Snapshot `json:"inventory"`
}
