package sales

import (
	"context"
)

// allocate satisfies a positive quantity request by walking the product's
// available batches oldest-purchase-first and consuming from each until the
// request is filled. Callers run it inside a transaction: on an insufficient
// stock the error returns before any consume, and on any later failure the
// enclosing transaction discards the partial consumes.
//
// Each returned allocation carries the batch's landed unit cost as computed
// at this moment; persisting it freezes the cost for all future reporting.
func allocate(ctx context.Context, tx TxRepository, productID, quantity int64) ([]Allocation, error) {
	available, err := tx.ListAvailableBatches(ctx, productID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, b := range available {
		total += b.RemainingQty
	}
	if total < quantity {
		return nil, &InsufficientStockError{Available: total, Requested: quantity}
	}

	remaining := quantity
	allocations := make([]Allocation, 0, len(available))
	for _, b := range available {
		if remaining == 0 {
			break
		}
		taken := remaining
		if b.RemainingQty < taken {
			taken = b.RemainingQty
		}
		if err := tx.ConsumeBatch(ctx, b.ID, taken); err != nil {
			return nil, err
		}
		allocations = append(allocations, Allocation{
			BatchID:        b.ID,
			UnitsTaken:     taken,
			LandedUnitCost: b.LandedUnitCost(),
		})
		remaining -= taken
	}
	return allocations, nil
}
