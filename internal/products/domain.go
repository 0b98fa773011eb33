package products

import (
	"errors"
	"time"
)

// DefaultUnit is the unit of measure assumed when none is given.
const DefaultUnit = "piece"

// Product is a catalog entry that purchase batches and sales hang off.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category,omitempty"`
	Unit        string    `json:"unit"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockSummary is a Product joined with live figures from its batch ledger.
type StockSummary struct {
	Product
	StockOnHand    int64 `json:"stock_on_hand"`
	TotalPurchased int64 `json:"total_purchased"`
	BatchCount     int64 `json:"batch_count"`
}

// Input carries the writable product fields.
type Input struct {
	Name        string
	SKU         string
	Category    string
	Unit        string
	Description string
}

var (
	ErrMissingFields = errors.New("products: sku and name are required")
	ErrSKUTaken      = errors.New("products: sku already in use")
)
