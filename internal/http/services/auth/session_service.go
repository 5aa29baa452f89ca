package auth

import (
	"context"
	"errors"

	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/store/core"
)

// ResolverDeps arma el resolver de sesión.
type ResolverDeps struct {
	Codec *jwtx.Codec
	Repo  core.Repository
}

type sessionResolver struct {
	codec *jwtx.Codec
	repo  core.Repository
}

// NewSessionResolver crea el resolver que usan los endpoints autenticados.
func NewSessionResolver(d ResolverDeps) SessionResolver {
	return &sessionResolver{codec: d.Codec, repo: d.Repo}
}

// Resolve valida el token y lo cruza con la cuenta persistida.
//
// Contrato:
//   - rawToken vacío → (nil, nil): request anónimo, no es error.
//   - Token inválido o vencido → (nil, nil): se trata igual que ausencia.
//   - Cuenta borrada después de emitir el token → (nil, nil).
//   - El ROL sale siempre del store, nunca del claim: un cambio de rol
//     pega de inmediato aunque el token viejo siga vivo.
//   - Error real de infraestructura (store caído) → (nil, err).
func (s *sessionResolver) Resolve(ctx context.Context, rawToken string) (*core.AuthUser, error) {
	if rawToken == "" {
		return nil, nil
	}

	claims, err := s.codec.Verify(rawToken, jwtx.KindAccess)
	if err != nil {
		return nil, nil
	}

	u, err := s.repo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		logger.From(ctx).Error("session lookup failed",
			logger.Component("auth"),
			logger.UserID(claims.Subject),
			logger.Err(err),
		)
		return nil, err
	}

	email := u.Email
	if email == "" {
		email = claims.Email
	}

	return &core.AuthUser{ID: u.ID, Email: email, Role: u.Role}, nil
}
