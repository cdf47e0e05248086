package middleware

import (
	"context"

	"events-service/internal/domain"
)

type contextKey string

const (
	ContextPrincipal contextKey = "principal"
	ContextToken     contextKey = "token"
	ContextRequestID contextKey = "requestID"
)

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipal, p)
}

// PrincipalFrom returns the caller set by AuthMiddleware.Require.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ContextPrincipal).(domain.Principal)
	return p, ok
}

func GetToken(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextToken).(string)
	return val, ok
}

func RequestIDFrom(ctx context.Context) string {
	val, _ := ctx.Value(ContextRequestID).(string)
	return val
}
