package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// RepositoryPort abstracts user persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, username, passwordHash, role string) (int64, error)
	Update(ctx context.Context, id int64, username, passwordHash, role string) error
	Delete(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages operator accounts. Every mutation is admin-only; the
// handler enforces that, the service enforces the integrity guards.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	bcryptCost int
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, bcryptCost int) *Service {
	return &Service{repo: repo, audit: audit, bcryptCost: bcryptCost}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// GetByUsername is the login lookup, hash included.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func validateRole(role string) error {
	if role != RoleAdmin && role != RoleStaff {
		return ErrBadRole
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input, actorID int64) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return User{}, ErrMissingUsername
	}
	if err := validateRole(in.Role); err != nil {
		return User{}, err
	}
	if len(in.Password) < 8 {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	id, err := s.repo.Create(ctx, in.Username, string(hash), in.Role)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "user:create", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in Input, actorID int64) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return User{}, ErrMissingUsername
	}
	if err := validateRole(in.Role); err != nil {
		return User{}, err
	}
	if in.Password != "" && len(in.Password) < 8 {
		return User{}, ErrWeakPassword
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if current.Role == RoleAdmin && in.Role != RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return User{}, err
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}

	hash := ""
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return User{}, err
		}
		hash = string(hashed)
	}
	if err := s.repo.Update(ctx, id, in.Username, hash, in.Role); err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "user:update", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrSelfDelete
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Role == RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user:delete", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", id),
	})
}
