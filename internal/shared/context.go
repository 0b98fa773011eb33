package shared

import "context"

// AuthUser carries the authenticated identity extracted from a bearer token.
type AuthUser struct {
	ID       int64
	Username string
	Role     string
}

// IsAdmin reports whether the user holds the admin role.
func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

type authUserContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, authUserContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(authUserContextKey{}).(*AuthUser)
	return user
}
