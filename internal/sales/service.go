package sales

import (
	"context"
	"fmt"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the sale ledger: create, amend and void, each as one
// atomic unit over the batch ledger.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func validate(in SaleInput) error {
	if in.ProductID == 0 || in.SaleDate.IsZero() {
		return ErrMissingFields
	}
	if in.QuantitySold <= 0 {
		return ErrInvalidQuantity
	}
	if !in.SalePrice.IsPositive() {
		return ErrMissingFields
	}
	if in.DeliveryCost.IsNegative() {
		return ErrInvalidMoney
	}
	return nil
}

// List returns sale summaries matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]SaleSummary, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one sale summary.
func (s *Service) Get(ctx context.Context, id int64) (SaleSummary, error) {
	return s.repo.Get(ctx, id)
}

// Create records a sale and its FIFO allocations. Insufficient stock aborts
// with nothing persisted.
func (s *Service) Create(ctx context.Context, in SaleInput, actorID int64) (SaleSummary, error) {
	if err := validate(in); err != nil {
		return SaleSummary{}, err
	}

	var saleID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		allocations, err := allocate(ctx, tx, in.ProductID, in.QuantitySold)
		if err != nil {
			return err
		}
		saleID, err = tx.InsertSale(ctx, in)
		if err != nil {
			return err
		}
		for _, alloc := range allocations {
			if err := tx.InsertAllocation(ctx, saleID, alloc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SaleSummary{}, err
	}

	s.recordAudit(ctx, actorID, "sale:create", saleID, in)
	return s.repo.Get(ctx, saleID)
}

// Amend rebuilds a sale: restore its old allocations, overwrite its fields
// and re-run the allocator against the restored batch state. Failure at any
// step, including insufficient stock for the new quantity, rolls back to the
// exact pre-amend state.
func (s *Service) Amend(ctx context.Context, id int64, in SaleInput, actorID int64) (SaleSummary, error) {
	if err := validate(in); err != nil {
		return SaleSummary{}, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSale(ctx, id); err != nil {
			return err
		}
		existing, err := tx.ListAllocations(ctx, id)
		if err != nil {
			return err
		}
		for _, alloc := range existing {
			if err := tx.RestoreBatch(ctx, alloc.BatchID, alloc.UnitsTaken); err != nil {
				return err
			}
		}
		if err := tx.DeleteAllocations(ctx, id); err != nil {
			return err
		}
		allocations, err := allocate(ctx, tx, in.ProductID, in.QuantitySold)
		if err != nil {
			return err
		}
		if err := tx.UpdateSale(ctx, id, in); err != nil {
			return err
		}
		for _, alloc := range allocations {
			if err := tx.InsertAllocation(ctx, id, alloc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SaleSummary{}, err
	}

	s.recordAudit(ctx, actorID, "sale:amend", id, in)
	return s.repo.Get(ctx, id)
}

// Void restores every consumed unit to its batch and deletes the sale.
// A sale without allocations still voids; an unknown id is not found.
func (s *Service) Void(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSale(ctx, id); err != nil {
			return err
		}
		allocations, err := tx.ListAllocations(ctx, id)
		if err != nil {
			return err
		}
		for _, alloc := range allocations {
			if err := tx.RestoreBatch(ctx, alloc.BatchID, alloc.UnitsTaken); err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sale:void",
			Entity:   "sale",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, saleID int64, in SaleInput) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", saleID),
		Meta: map[string]any{
			"product_id":    in.ProductID,
			"quantity_sold": in.QuantitySold,
			"sale_price":    in.SalePrice.String(),
		},
	})
}
