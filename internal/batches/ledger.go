package batches

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// The functions below are the only write paths for remaining_qty. The sale
// ledger calls them from inside its own transaction so batch consumption and
// allocation rows commit or roll back together.

// ListAvailableForUpdate returns the product's batches with stock left, in
// FIFO order (purchase date, then id so same-day batches consume in the
// order they were recorded), locking the rows for the transaction.
func ListAvailableForUpdate(ctx context.Context, tx pgx.Tx, productID int64) ([]Batch, error) {
	rows, err := tx.Query(ctx, `SELECT id, product_id, purchase_date, quantity, remaining_qty, unit_price, exchange_rate, freight, customs, COALESCE(notes,''), created_at, updated_at
FROM purchase_batches
WHERE product_id=$1 AND remaining_qty > 0
ORDER BY purchase_date ASC, id ASC
FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.PurchaseDate, &b.Quantity, &b.RemainingQty, &b.UnitPrice, &b.ExchangeRate, &b.Freight, &b.Customs, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Consume decrements a batch's remaining quantity. The WHERE clause enforces
// the lower bound; a zero-row update means the caller asked for more than
// the batch holds, which is an invariant violation, never clamped.
func Consume(ctx context.Context, tx pgx.Tx, batchID, units int64) error {
	tag, err := tx.Exec(ctx, `UPDATE purchase_batches
SET remaining_qty = remaining_qty - $2, updated_at = NOW()
WHERE id = $1 AND remaining_qty - $2 >= 0`, batchID, units)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &InvariantError{Op: "consume", BatchID: batchID, Units: units}
	}
	return nil
}

// Restore returns previously consumed units to a batch, bounded above by the
// quantity originally received.
func Restore(ctx context.Context, tx pgx.Tx, batchID, units int64) error {
	tag, err := tx.Exec(ctx, `UPDATE purchase_batches
SET remaining_qty = remaining_qty + $2, updated_at = NOW()
WHERE id = $1 AND remaining_qty + $2 <= quantity`, batchID, units)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &InvariantError{Op: "restore", BatchID: batchID, Units: units}
	}
	return nil
}
