package batches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// BatchWithProduct decorates a batch with catalogue fields for listings.
type BatchWithProduct struct {
	Batch
	ProductName string
	SKU         string
}

// Repository abstracts batch persistence for the service.
type Repository interface {
	List(ctx context.Context, productID int64) ([]BatchWithProduct, error)
	Get(ctx context.Context, id int64) (BatchWithProduct, error)
	Create(ctx context.Context, in CreateInput) (int64, error)
	Update(ctx context.Context, id int64, in CreateInput) error
	Delete(ctx context.Context, id int64) error
	HasAllocations(ctx context.Context, id int64) (bool, error)
}

// SQLRepository persists batches in PostgreSQL.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs SQLRepository.
func NewRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

const batchColumns = `pb.id, pb.product_id, pb.purchase_date, pb.quantity, pb.remaining_qty, pb.unit_price, pb.exchange_rate, pb.freight, pb.customs, COALESCE(pb.notes,''), pb.created_at, pb.updated_at, p.name, COALESCE(p.sku, '')`

func scanBatchWithProduct(row pgx.Row) (BatchWithProduct, error) {
	var b BatchWithProduct
	err := row.Scan(&b.ID, &b.ProductID, &b.PurchaseDate, &b.Quantity, &b.RemainingQty, &b.UnitPrice, &b.ExchangeRate, &b.Freight, &b.Customs, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &b.ProductName, &b.SKU)
	return b, err
}

func (r *SQLRepository) List(ctx context.Context, productID int64) ([]BatchWithProduct, error) {
	query := `SELECT ` + batchColumns + `
FROM purchase_batches pb
JOIN products p ON p.id = pb.product_id`
	args := []any{}
	if productID != 0 {
		query += ` WHERE pb.product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY pb.purchase_date DESC, pb.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BatchWithProduct{}
	for rows.Next() {
		b, err := scanBatchWithProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (BatchWithProduct, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+batchColumns+`
FROM purchase_batches pb
JOIN products p ON p.id = pb.product_id
WHERE pb.id = $1`, id)
	b, err := scanBatchWithProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return BatchWithProduct{}, shared.ErrNotFound
	}
	return b, err
}

func (r *SQLRepository) Create(ctx context.Context, in CreateInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO purchase_batches
(product_id, purchase_date, quantity, remaining_qty, unit_price, exchange_rate, freight, customs, notes, created_at, updated_at)
VALUES ($1,$2,$3,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING id`,
		in.ProductID, in.PurchaseDate, in.Quantity, in.UnitPrice, in.ExchangeRate, in.Freight, in.Customs, nullString(in.Notes)).Scan(&id)
	return id, err
}

func (r *SQLRepository) Update(ctx context.Context, id int64, in CreateInput) error {
	// Editing is only allowed before any allocation exists, so remaining
	// quantity resets alongside the received quantity.
	tag, err := r.pool.Exec(ctx, `UPDATE purchase_batches
SET product_id=$2, purchase_date=$3, quantity=$4, remaining_qty=$4, unit_price=$5, exchange_rate=$6, freight=$7, customs=$8, notes=$9, updated_at=NOW()
WHERE id=$1`, id, in.ProductID, in.PurchaseDate, in.Quantity, in.UnitPrice, in.ExchangeRate, in.Freight, in.Customs, nullString(in.Notes))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchase_batches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) HasAllocations(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sale_batch_allocations WHERE batch_id=$1`, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
