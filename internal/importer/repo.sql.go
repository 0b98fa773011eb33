package importer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/platform/db"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// TxRepository is the import write surface inside one transaction.
type TxRepository interface {
	FindProductBySKU(ctx context.Context, sku string) (int64, error)
	FindProductByName(ctx context.Context, name string) (int64, error)
	InsertProduct(ctx context.Context, name, sku, category string) (int64, error)
	InsertBatch(ctx context.Context, productID int64, row Row, purchaseDate time.Time, remaining int64) (int64, error)
	InsertSale(ctx context.Context, productID int64, row Row, saleDate time.Time) (int64, error)
	InsertAllocation(ctx context.Context, saleID, batchID, units int64, landedUnitCost decimal.Decimal) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Repository runs imports against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs the whole import as one serializable transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) findProduct(ctx context.Context, column, value string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`SELECT id FROM products WHERE `+column+` = $1 AND is_active`, value).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return id, err
}

func (r *txRepository) FindProductBySKU(ctx context.Context, sku string) (int64, error) {
	return r.findProduct(ctx, "sku", sku)
}

func (r *txRepository) FindProductByName(ctx context.Context, name string) (int64, error) {
	return r.findProduct(ctx, "name", name)
}

func (r *txRepository) InsertProduct(ctx context.Context, name, sku, category string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO products (name, sku, category, is_active) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), TRUE) RETURNING id`,
		name, sku, category).Scan(&id)
	return id, err
}

func (r *txRepository) InsertBatch(ctx context.Context, productID int64, row Row, purchaseDate time.Time, remaining int64) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_batches
(product_id, purchase_date, quantity, remaining_qty, unit_price, exchange_rate, freight, customs, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,0,NULLIF($8,''),NOW(),NOW()) RETURNING id`,
		productID, purchaseDate, row.Quantity, remaining, row.UnitPrice, row.ExchangeRate, row.Freight, row.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertSale(ctx context.Context, productID int64, row Row, saleDate time.Time) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales
(product_id, sale_date, quantity_sold, sale_price, delivery_cost, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NOW(),NOW()) RETURNING id`,
		productID, saleDate, row.QuantitySold, row.SalePrice, row.DeliveryCost, row.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertAllocation(ctx context.Context, saleID, batchID, units int64, landedUnitCost decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO sale_batch_allocations
(sale_id, batch_id, units_taken, landed_cost_per_unit) VALUES ($1,$2,$3,$4)`,
		saleID, batchID, units, landedUnitCost)
	return err
}
