package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/costing"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// ErrEmptyImport is returned when no row in the payload was usable.
var ErrEmptyImport = errors.New("importer: no importable rows")

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service turns sheet rows into products, batches and historical sales in
// one transaction. Invalid rows are skipped and reported, not fatal.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func parseRow(i int, row Row) (parsedRow, error) {
	row.ProductName = strings.TrimSpace(row.ProductName)
	row.SKU = strings.TrimSpace(row.SKU)
	row.Category = strings.TrimSpace(row.Category)
	if row.ProductName == "" {
		return parsedRow{}, fmt.Errorf("row %d: product name is required", i+1)
	}
	if row.Quantity <= 0 {
		return parsedRow{}, fmt.Errorf("row %d: quantity must be positive", i+1)
	}
	if row.UnitPrice.IsNegative() || row.ExchangeRate.Sign() <= 0 || row.Freight.IsNegative() {
		return parsedRow{}, fmt.Errorf("row %d: invalid cost inputs", i+1)
	}
	purchaseDate, err := time.Parse("2006-01-02", row.PurchaseDate)
	if err != nil {
		return parsedRow{}, fmt.Errorf("row %d: purchase_date must be YYYY-MM-DD", i+1)
	}

	p := parsedRow{row: row, purchaseDate: purchaseDate}
	if row.QuantitySold > 0 {
		if row.QuantitySold > row.Quantity {
			return parsedRow{}, fmt.Errorf("row %d: quantity_sold exceeds quantity", i+1)
		}
		if row.SalePrice.IsNegative() || row.DeliveryCost.IsNegative() {
			return parsedRow{}, fmt.Errorf("row %d: invalid sale inputs", i+1)
		}
		// Sheets often omit the sale date; the purchase date is the
		// closest thing to the truth we have.
		p.saleDate = purchaseDate
		if row.SaleDate != "" {
			p.saleDate, err = time.Parse("2006-01-02", row.SaleDate)
			if err != nil {
				return parsedRow{}, fmt.Errorf("row %d: sale_date must be YYYY-MM-DD", i+1)
			}
		}
	}
	return p, nil
}

// Import runs the whole sheet inside one transaction. Skipped rows never
// abort the run; any database failure rolls the entire import back.
func (s *Service) Import(ctx context.Context, rows []Row, actorID int64) (Result, error) {
	result := Result{}
	parsed := make([]parsedRow, 0, len(rows))
	for i, row := range rows {
		p, err := parseRow(i, row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		parsed = append(parsed, p)
	}
	if len(parsed) == 0 {
		return result, ErrEmptyImport
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Products created earlier in the same run must be found by
		// later rows, so lookups go through the transaction.
		for _, p := range parsed {
			productID, created, err := s.resolveProduct(ctx, tx, p.row)
			if err != nil {
				return err
			}
			if created {
				result.Products++
			}

			remaining := p.row.Quantity - p.row.QuantitySold
			batchID, err := tx.InsertBatch(ctx, productID, p.row, p.purchaseDate, remaining)
			if err != nil {
				return err
			}
			result.Batches++

			if p.row.QuantitySold == 0 {
				continue
			}
			saleID, err := tx.InsertSale(ctx, productID, p.row, p.saleDate)
			if err != nil {
				return err
			}
			cost := costing.LandedUnitCost(costing.BatchInputs{
				UnitPrice:    p.row.UnitPrice,
				ExchangeRate: p.row.ExchangeRate,
				Freight:      p.row.Freight,
				Customs:      decimal.Zero,
				Quantity:     p.row.Quantity,
			})
			if err := tx.InsertAllocation(ctx, saleID, batchID, p.row.QuantitySold, cost); err != nil {
				return err
			}
			result.Sales++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID,
			Action:  "import:run",
			Entity:  "import",
			EntityID: fmt.Sprintf("batches=%d sales=%d skipped=%d",
				result.Batches, result.Sales, result.Skipped),
		})
	}
	return result, nil
}

func (s *Service) resolveProduct(ctx context.Context, tx TxRepository, row Row) (int64, bool, error) {
	if row.SKU != "" {
		id, err := tx.FindProductBySKU(ctx, row.SKU)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return 0, false, err
		}
	}
	id, err := tx.FindProductByName(ctx, row.ProductName)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return 0, false, err
	}
	id, err = tx.InsertProduct(ctx, row.ProductName, row.SKU, row.Category)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
