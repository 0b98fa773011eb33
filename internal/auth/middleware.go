package auth

import (
	"net/http"
	"strings"

	"github.com/wonrang2/auskorphi/internal/platform/httpx"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// Middleware rejects requests without a valid Bearer token and puts the
// authenticated user on the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := service.Verify(token)
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			user := &shared.AuthUser{ID: claims.UserID, Username: claims.Username, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin guards admin-only routes. It assumes Middleware already ran.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := shared.UserFromContext(r.Context())
		if user == nil || !user.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.ErrAdminRequired.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
