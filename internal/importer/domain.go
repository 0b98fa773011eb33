package importer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one line of an import sheet. A row always describes a purchase
// batch; when QuantitySold is set it also carries the matching historical
// sale.
type Row struct {
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	Category     string          `json:"category"`
	PurchaseDate string          `json:"purchase_date"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Freight      decimal.Decimal `json:"freight"`
	QuantitySold int64           `json:"quantity_sold"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	SaleDate     string          `json:"sale_date"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
	Notes        string          `json:"notes"`
}

// Result reports what an import run created.
type Result struct {
	Products int      `json:"products"`
	Batches  int      `json:"batches"`
	Sales    int      `json:"sales"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type parsedRow struct {
	row          Row
	purchaseDate time.Time
	saleDate     time.Time
}
