package sales

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonrang2/auskorphi/internal/batches"
	"github.com/wonrang2/auskorphi/internal/platform/db"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// TxRepository exposes the operations a sale transaction is built from.
// Batch consumption and sale/allocation writes share one transaction so a
// failure anywhere rolls everything back together.
type TxRepository interface {
	GetSale(ctx context.Context, id int64) (Sale, error)
	InsertSale(ctx context.Context, in SaleInput) (int64, error)
	UpdateSale(ctx context.Context, id int64, in SaleInput) error
	DeleteSale(ctx context.Context, id int64) error
	ListAllocations(ctx context.Context, saleID int64) ([]Allocation, error)
	InsertAllocation(ctx context.Context, saleID int64, alloc Allocation) error
	DeleteAllocations(ctx context.Context, saleID int64) error
	ListAvailableBatches(ctx context.Context, productID int64) ([]batches.Batch, error)
	ConsumeBatch(ctx context.Context, batchID, units int64) error
	RestoreBatch(ctx context.Context, batchID, units int64) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]SaleSummary, error)
	Get(ctx context.Context, id int64) (SaleSummary, error)
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a serializable transaction; the FIFO
// walk is a read-modify-write over batch rows and must not interleave with
// another allocator on the same product.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const summarySelect = `SELECT
  s.id, s.product_id, s.sale_date, s.quantity_sold, s.sale_price, s.delivery_cost, COALESCE(s.notes,''), s.created_at, s.updated_at,
  p.name, COALESCE(p.sku, ''),
  s.sale_price * s.quantity_sold AS revenue,
  COALESCE(SUM(a.units_taken * a.landed_cost_per_unit), 0) AS cogs
FROM sales s
JOIN products p ON p.id = s.product_id
LEFT JOIN sale_batch_allocations a ON a.sale_id = s.id`

const summaryGroup = ` GROUP BY s.id, p.name, p.sku`

func scanSummary(rows pgx.Rows) (SaleSummary, error) {
	var s SaleSummary
	err := rows.Scan(&s.ID, &s.ProductID, &s.SaleDate, &s.QuantitySold, &s.SalePrice, &s.DeliveryCost, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
		&s.ProductName, &s.SKU, &s.Revenue, &s.COGS)
	if err != nil {
		return SaleSummary{}, err
	}
	s.GrossProfit = s.Revenue.Sub(s.COGS)
	s.NetProfit = s.GrossProfit.Sub(s.DeliveryCost)
	return s, nil
}

// List returns sale summaries newest first, with profit figures computed
// from frozen allocation costs.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]SaleSummary, error) {
	query := summarySelect
	where := ""
	args := []any{}
	appendCond := func(cond string, arg any) {
		args = append(args, arg)
		placeholder := "$" + strconv.Itoa(len(args))
		if where == "" {
			where = " WHERE " + cond + placeholder
		} else {
			where += " AND " + cond + placeholder
		}
	}
	if filter.ProductID != 0 {
		appendCond("s.product_id = ", filter.ProductID)
	}
	if !filter.From.IsZero() {
		appendCond("s.sale_date >= ", filter.From)
	}
	if !filter.To.IsZero() {
		appendCond("s.sale_date <= ", filter.To)
	}
	query += where + summaryGroup + ` ORDER BY s.sale_date DESC, s.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SaleSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one sale summary.
func (r *Repository) Get(ctx context.Context, id int64) (SaleSummary, error) {
	rows, err := r.pool.Query(ctx, summarySelect+` WHERE s.id = $1`+summaryGroup, id)
	if err != nil {
		return SaleSummary{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return SaleSummary{}, err
		}
		return SaleSummary{}, shared.ErrNotFound
	}
	return scanSummary(rows)
}

func (r *txRepository) GetSale(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, sale_date, quantity_sold, sale_price, delivery_cost, COALESCE(notes,''), created_at, updated_at
FROM sales WHERE id=$1`, id).
		Scan(&s.ID, &s.ProductID, &s.SaleDate, &s.QuantitySold, &s.SalePrice, &s.DeliveryCost, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	return s, err
}

func (r *txRepository) InsertSale(ctx context.Context, in SaleInput) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (product_id, sale_date, quantity_sold, sale_price, delivery_cost, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING id`,
		in.ProductID, in.SaleDate, in.QuantitySold, in.SalePrice, in.DeliveryCost, nullString(in.Notes)).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateSale(ctx context.Context, id int64, in SaleInput) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales
SET product_id=$2, sale_date=$3, quantity_sold=$4, sale_price=$5, delivery_cost=$6, notes=$7, updated_at=NOW()
WHERE id=$1`, id, in.ProductID, in.SaleDate, in.QuantitySold, in.SalePrice, in.DeliveryCost, nullString(in.Notes))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteSale(ctx context.Context, id int64) error {
	// Allocation rows go with the sale via ON DELETE CASCADE.
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) ListAllocations(ctx context.Context, saleID int64) ([]Allocation, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, sale_id, batch_id, units_taken, landed_cost_per_unit
FROM sale_batch_allocations WHERE sale_id=$1 ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.SaleID, &a.BatchID, &a.UnitsTaken, &a.LandedUnitCost); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *txRepository) InsertAllocation(ctx context.Context, saleID int64, alloc Allocation) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO sale_batch_allocations (sale_id, batch_id, units_taken, landed_cost_per_unit)
VALUES ($1,$2,$3,$4)`, saleID, alloc.BatchID, alloc.UnitsTaken, alloc.LandedUnitCost)
	return err
}

func (r *txRepository) DeleteAllocations(ctx context.Context, saleID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sale_batch_allocations WHERE sale_id=$1`, saleID)
	return err
}

func (r *txRepository) ListAvailableBatches(ctx context.Context, productID int64) ([]batches.Batch, error) {
	return batches.ListAvailableForUpdate(ctx, r.tx, productID)
}

func (r *txRepository) ConsumeBatch(ctx context.Context, batchID, units int64) error {
	return batches.Consume(ctx, r.tx, batchID, units)
}

func (r *txRepository) RestoreBatch(ctx context.Context, batchID, units int64) error {
	return batches.Restore(ctx, r.tx, batchID, units)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
