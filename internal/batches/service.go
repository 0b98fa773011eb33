package batches

import (
	"context"
	"fmt"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates purchase batch catalogue operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func validate(in CreateInput) error {
	if in.ProductID == 0 || in.PurchaseDate.IsZero() {
		return ErrMissingFields
	}
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !in.UnitPrice.IsPositive() || !in.ExchangeRate.IsPositive() {
		return ErrInvalidMoney
	}
	if in.Freight.IsNegative() || in.Customs.IsNegative() {
		return ErrInvalidMoney
	}
	return nil
}

// List returns batches, optionally filtered to one product, newest first.
func (s *Service) List(ctx context.Context, productID int64) ([]BatchWithProduct, error) {
	return s.repo.List(ctx, productID)
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, id int64) (BatchWithProduct, error) {
	return s.repo.Get(ctx, id)
}

// Create records a purchase; remaining quantity starts at the received
// quantity.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (BatchWithProduct, error) {
	if err := validate(in); err != nil {
		return BatchWithProduct{}, err
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return BatchWithProduct{}, err
	}
	s.recordAudit(ctx, actorID, "batch:create", id)
	return s.repo.Get(ctx, id)
}

// Update rewrites a batch's purchase inputs. Refused once any sale has drawn
// from the batch: allocations froze its cost.
func (s *Service) Update(ctx context.Context, id int64, in CreateInput, actorID int64) (BatchWithProduct, error) {
	if err := validate(in); err != nil {
		return BatchWithProduct{}, err
	}
	locked, err := s.repo.HasAllocations(ctx, id)
	if err != nil {
		return BatchWithProduct{}, err
	}
	if locked {
		return BatchWithProduct{}, ErrBatchLocked
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return BatchWithProduct{}, err
	}
	s.recordAudit(ctx, actorID, "batch:update", id)
	return s.repo.Get(ctx, id)
}

// Delete removes a batch that no sale references.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	locked, err := s.repo.HasAllocations(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return ErrBatchLocked
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "batch:delete", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "batch",
		EntityID: fmt.Sprintf("%d", id),
	})
}
