package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/wonrang2/auskorphi/internal/shared"
	"github.com/wonrang2/auskorphi/internal/users"
)

// UserSource is the account lookup the login flow needs.
type UserSource interface {
	GetByUsername(ctx context.Context, username string) (users.User, error)
	Get(ctx context.Context, id int64) (users.User, error)
}

// Service authenticates operators and mints tokens.
type Service struct {
	source UserSource
	issuer *TokenIssuer
}

// NewService builds Service.
func NewService(source UserSource, issuer *TokenIssuer) *Service {
	return &Service{source: source, issuer: issuer}
}

// Login checks credentials and returns a signed token with the account.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, users.User, error) {
	user, err := s.source.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", users.User{}, shared.ErrInvalidCredentials
		}
		return "", users.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", users.User{}, shared.ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return "", users.User{}, err
	}
	return token, user, nil
}

// Me resolves the current account from a verified token's claims.
func (s *Service) Me(ctx context.Context, userID int64) (users.User, error) {
	return s.source.Get(ctx, userID)
}

// Verify exposes token verification for the middleware.
func (s *Service) Verify(tokenString string) (Claims, error) {
	return s.issuer.Verify(tokenString)
}
