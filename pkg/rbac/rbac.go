// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/retromusic/storefront/pkg/middleware"
	"github.com/retromusic/storefront/pkg/response"
)

// HasRole allows access only to users holding one of roles. middleware.Auth
// must run first; a request without claims is rejected with 401.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w, "")
				return
			}
			if !allowed[role] {
				response.Forbidden(w, "Acceso solo para administradores")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
