package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xelth-com/eckcosting/internal/utils"
)

type contextKey string

// OperatorContextKey holds the operator name taken from the bearer token
const OperatorContextKey contextKey = "operator"

// OperatorAuth verifies operator JWT tokens. With an empty secret the guard
// is disabled and requests pass through unchanged.
func OperatorAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			operator, ok := utils.OperatorFromClaims(claims)
			if !ok {
				http.Error(w, "Not an operator token", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), OperatorContextKey, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Operator returns the authenticated operator, or "" when the guard is off
func Operator(ctx context.Context) string {
	op, _ := ctx.Value(OperatorContextKey).(string)
	return op
}
