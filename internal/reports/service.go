package reports

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wonrang2/auskorphi/internal/inventory"
	"github.com/wonrang2/auskorphi/internal/sales"
)

var hundred = decimal.NewFromInt(100)

// SaleSource provides the settled sale rows reports are computed from.
type SaleSource interface {
	List(ctx context.Context, filter sales.ListFilter) ([]sales.SaleSummary, error)
}

// StockSource provides the current inventory snapshot.
type StockSource interface {
	Snapshot(ctx context.Context) (inventory.Snapshot, error)
}

// Service computes read-only reports over the sale ledger.
type Service struct {
	salesSrc SaleSource
	stockSrc StockSource
}

// NewService builds Service.
func NewService(salesSrc SaleSource, stockSrc StockSource) *Service {
	return &Service{salesSrc: salesSrc, stockSrc: stockSrc}
}

// Summary rolls up every sale matching the filter into one P&L line.
func (s *Service) Summary(ctx context.Context, filter sales.ListFilter) (Summary, error) {
	rows, err := s.salesSrc.List(ctx, filter)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		TotalRevenue:   decimal.Zero,
		TotalCOGS:      decimal.Zero,
		TotalDelivery:  decimal.Zero,
		GrossProfit:    decimal.Zero,
		NetProfit:      decimal.Zero,
		GrossMarginPct: decimal.Zero,
		NetMarginPct:   decimal.Zero,
	}
	for _, row := range rows {
		out.SaleCount++
		out.UnitsSold += row.QuantitySold
		out.TotalRevenue = out.TotalRevenue.Add(row.Revenue)
		out.TotalCOGS = out.TotalCOGS.Add(row.COGS)
		out.TotalDelivery = out.TotalDelivery.Add(row.DeliveryCost)
		out.GrossProfit = out.GrossProfit.Add(row.GrossProfit)
		out.NetProfit = out.NetProfit.Add(row.NetProfit)
	}
	if out.TotalRevenue.IsPositive() {
		out.GrossMarginPct = out.GrossProfit.Div(out.TotalRevenue).Mul(hundred)
		out.NetMarginPct = out.NetProfit.Div(out.TotalRevenue).Mul(hundred)
	}
	return out, nil
}

// ByProduct groups sales per product, best net profit first.
func (s *Service) ByProduct(ctx context.Context, filter sales.ListFilter) ([]ProductReport, error) {
	rows, err := s.salesSrc.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64]*ProductReport)
	for _, row := range rows {
		pr, ok := byProduct[row.ProductID]
		if !ok {
			pr = &ProductReport{
				ProductID:      row.ProductID,
				ProductName:    row.ProductName,
				SKU:            row.SKU,
				Revenue:        decimal.Zero,
				COGS:           decimal.Zero,
				GrossProfit:    decimal.Zero,
				DeliveryCost:   decimal.Zero,
				NetProfit:      decimal.Zero,
				GrossMarginPct: decimal.Zero,
				NetMarginPct:   decimal.Zero,
			}
			byProduct[row.ProductID] = pr
		}
		pr.SaleCount++
		pr.UnitsSold += row.QuantitySold
		pr.Revenue = pr.Revenue.Add(row.Revenue)
		pr.COGS = pr.COGS.Add(row.COGS)
		pr.GrossProfit = pr.GrossProfit.Add(row.GrossProfit)
		pr.DeliveryCost = pr.DeliveryCost.Add(row.DeliveryCost)
		pr.NetProfit = pr.NetProfit.Add(row.NetProfit)
	}

	out := make([]ProductReport, 0, len(byProduct))
	for _, pr := range byProduct {
		if pr.Revenue.IsPositive() {
			pr.GrossMarginPct = pr.GrossProfit.Div(pr.Revenue).Mul(hundred)
			pr.NetMarginPct = pr.NetProfit.Div(pr.Revenue).Mul(hundred)
		}
		out = append(out, *pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NetProfit.Equal(out[j].NetProfit) {
			return out[i].NetProfit.GreaterThan(out[j].NetProfit)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// Dashboard fans the three landing-page queries out concurrently.
func (s *Service) Dashboard(ctx context.Context, filter sales.ListFilter) (Dashboard, error) {
	var dash Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.Summary(ctx, filter)
		if err == nil {
			dash.Summary = summary
		}
		return err
	})
	g.Go(func() error {
		products, err := s.ByProduct(ctx, filter)
		if err == nil {
			dash.Products = products
		}
		return err
	})
	g.Go(func() error {
		snap, err := s.stockSrc.Snapshot(ctx)
		if err == nil {
			dash.Inventory = snap
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}
