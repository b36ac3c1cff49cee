package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fjod/go_shop/internal/identity"
)

type contextKey string

const (
	customerIDKey contextKey = "customer_id"
)

// AuthMiddleware resolves the bearer token through the identity provider
// and stores the principal's customer id on the request context.
func AuthMiddleware(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}

			principal, err := provider.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
				return
			}

			ctx := context.WithValue(r.Context(), customerIDKey, principal.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuthMiddleware guards operator routes with a shared token.
func AdminAuthMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(adminToken)) != 1 {
				respondError(w, http.StatusForbidden, "permission_denied", "operator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getCustomerID(ctx context.Context) string {
	if id, ok := ctx.Value(customerIDKey).(string); ok {
		return id
	}
	return ""
}
