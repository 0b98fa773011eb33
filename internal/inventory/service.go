package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/batches"
)

// BatchSource provides the batch rows the views are computed from.
type BatchSource interface {
	List(ctx context.Context, productID int64) ([]batches.BatchWithProduct, error)
}

// Service computes stock views from the batch ledger. Nothing here writes;
// sales and batch maintenance own every mutation.
type Service struct {
	source BatchSource
}

// NewService builds Service.
func NewService(source BatchSource) *Service {
	return &Service{source: source}
}

// Snapshot aggregates remaining stock and its value per product. Landed
// costs are recomputed from current batch inputs, so editing an unallocated
// batch shows up here immediately.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.source.List(ctx, 0)
	if err != nil {
		return Snapshot{}, err
	}

	byProduct := make(map[int64]*ProductStock)
	order := []int64{}
	for _, b := range rows {
		ps, ok := byProduct[b.ProductID]
		if !ok {
			ps = &ProductStock{
				ProductID:      b.ProductID,
				ProductName:    b.ProductName,
				SKU:            b.SKU,
				InventoryValue: decimal.Zero,
				AvgLandedCost:  decimal.Zero,
			}
			byProduct[b.ProductID] = ps
			order = append(order, b.ProductID)
		}
		if b.RemainingQty == 0 {
			continue
		}
		ps.StockOnHand += b.RemainingQty
		ps.BatchCount++
		ps.InventoryValue = ps.InventoryValue.Add(
			b.LandedUnitCost().Mul(decimal.NewFromInt(b.RemainingQty)))
	}

	snap := Snapshot{Products: []ProductStock{}, TotalValue: decimal.Zero}
	sort.Slice(order, func(i, j int) bool {
		return byProduct[order[i]].ProductName < byProduct[order[j]].ProductName
	})
	for _, id := range order {
		ps := byProduct[id]
		if ps.StockOnHand > 0 {
			ps.AvgLandedCost = ps.InventoryValue.Div(decimal.NewFromInt(ps.StockOnHand))
		}
		snap.Products = append(snap.Products, *ps)
		snap.TotalUnits += ps.StockOnHand
		snap.TotalValue = snap.TotalValue.Add(ps.InventoryValue)
	}
	return snap, nil
}

// Breakdown lists a product's batches in the order sales consume them,
// depleted batches included.
func (s *Service) Breakdown(ctx context.Context, productID int64) ([]BatchBreakdown, error) {
	rows, err := s.source.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].PurchaseDate.Equal(rows[j].PurchaseDate) {
			return rows[i].PurchaseDate.Before(rows[j].PurchaseDate)
		}
		return rows[i].ID < rows[j].ID
	})

	out := make([]BatchBreakdown, 0, len(rows))
	for _, b := range rows {
		cost := b.LandedUnitCost()
		out = append(out, BatchBreakdown{
			BatchID:        b.ID,
			PurchaseDate:   b.PurchaseDate,
			Quantity:       b.Quantity,
			RemainingQty:   b.RemainingQty,
			LandedUnitCost: cost,
			RemainingValue: cost.Mul(decimal.NewFromInt(b.RemainingQty)),
		})
	}
	return out, nil
}
