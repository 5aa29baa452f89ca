package middlewares

import (
	"context"

	"github.com/campuslibre/portal/internal/store/core"
)

type ctxKeyRequestID struct{}
type ctxKeyAuthUser struct{}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, rid)
}

// GetRequestID retorna el request id propagado, o "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithAuthUser guarda la identidad resuelta en el contexto.
func WithAuthUser(ctx context.Context, u *core.AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser{}, u)
}

// GetAuthUser retorna la identidad resuelta del contexto, o nil.
func GetAuthUser(ctx context.Context) *core.AuthUser {
	if v, ok := ctx.Value(ctxKeyAuthUser{}).(*core.AuthUser); ok {
		return v
	}
	return nil
}
