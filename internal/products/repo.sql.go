package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summarySelect = `
SELECT p.id, p.name, COALESCE(p.sku, ''), COALESCE(p.category, ''), p.unit, COALESCE(p.description, ''), p.is_active, p.created_at,
       COALESCE(SUM(b.remaining_qty), 0) AS stock_on_hand,
       COALESCE(SUM(b.quantity), 0) AS total_purchased,
       COUNT(b.id) AS batch_count
FROM products p
LEFT JOIN purchase_batches b ON b.product_id = p.id
`

func scanSummary(row pgx.Row) (StockSummary, error) {
	var s StockSummary
	err := row.Scan(&s.ID, &s.Name, &s.SKU, &s.Category, &s.Unit, &s.Description, &s.IsActive, &s.CreatedAt,
		&s.StockOnHand, &s.TotalPurchased, &s.BatchCount)
	return s, err
}

// List returns products with their stock figures. When activeOnly is set,
// soft-deleted products are excluded.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]StockSummary, error) {
	query := summarySelect
	if activeOnly {
		query += "WHERE p.is_active\n"
	}
	query += "GROUP BY p.id ORDER BY p.name ASC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StockSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns a single product with stock figures.
func (r *Repository) Get(ctx context.Context, id int64) (StockSummary, error) {
	row := r.pool.QueryRow(ctx, summarySelect+"WHERE p.id = $1\nGROUP BY p.id", id)
	s, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockSummary{}, shared.ErrNotFound
	}
	return s, err
}

// FindBySKU looks up an active product by SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (Product, error) {
	return r.findBy(ctx, "sku", sku)
}

// FindByName looks up an active product by exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (Product, error) {
	return r.findBy(ctx, "name", name)
}

func (r *Repository) findBy(ctx context.Context, column, value string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(sku, ''), COALESCE(category, ''), unit, COALESCE(description, ''), is_active, created_at
		 FROM products WHERE `+column+` = $1 AND is_active`, value).
		Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Unit, &p.Description, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// Create inserts a product. A SKU collision maps to ErrSKUTaken.
func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, sku, category, unit, description, is_active)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), TRUE)
		 RETURNING id`,
		in.Name, in.SKU, in.Category, in.Unit, in.Description).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrSKUTaken
	}
	return id, err
}

// Update rewrites the writable fields of a product.
func (r *Repository) Update(ctx context.Context, id int64, in Input) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, sku = $3, category = NULLIF($4, ''), unit = $5, description = NULLIF($6, '')
		 WHERE id = $1`,
		id, in.Name, in.SKU, in.Category, in.Unit, in.Description)
	if isUniqueViolation(err) {
		return ErrSKUTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a product so history stays intact.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
