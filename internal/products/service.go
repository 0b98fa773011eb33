package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// RepositoryPort abstracts product persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, activeOnly bool) ([]StockSummary, error)
	Get(ctx context.Context, id int64) (StockSummary, error)
	FindBySKU(ctx context.Context, sku string) (Product, error)
	FindByName(ctx context.Context, name string) (Product, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Input) error
	Deactivate(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service exposes catalog operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.SKU == "" {
		return Input{}, ErrMissingFields
	}
	if in.Unit == "" {
		in.Unit = DefaultUnit
	}
	return in, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]StockSummary, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id int64) (StockSummary, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input, actorID int64) (StockSummary, error) {
	in, err := normalize(in)
	if err != nil {
		return StockSummary{}, err
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return StockSummary{}, err
	}
	s.recordAudit(ctx, actorID, "product:create", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in Input, actorID int64) (StockSummary, error) {
	in, err := normalize(in)
	if err != nil {
		return StockSummary{}, err
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return StockSummary{}, err
	}
	s.recordAudit(ctx, actorID, "product:update", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "product:deactivate", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", id),
	})
}
