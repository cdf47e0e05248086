package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/pkg/response"
)

// TokenResolver turns a bearer token into the caller identity.
type TokenResolver interface {
	Resolve(token string) (domain.Principal, error)
}

type AuthMiddleware struct {
	resolver TokenResolver
	logger   *zap.Logger
}

func NewAuthMiddleware(resolver TokenResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

// Require authenticates the request and, when roles are given, requires the
// caller to hold one of them.
func (am *AuthMiddleware) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}

			principal, err := am.resolver.Resolve(token)
			if err != nil {
				am.logger.Debug("token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if len(roles) > 0 && !principal.Is(roles...) {
				am.logger.Info("role not permitted",
					zap.Int64("user_id", principal.ID),
					zap.String("role", principal.Role.String()),
					zap.String("path", r.URL.Path))
				response.Error(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = context.WithValue(ctx, ContextToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
