package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/security/password"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/google/uuid"
)

// Mínimo de caracteres para el password de una cuenta nueva.
const minPasswordLen = 8

// RegisterDeps arma el servicio de registro.
type RegisterDeps struct {
	Codec *jwtx.Codec
	Repo  core.Repository
}

type registerService struct {
	codec *jwtx.Codec
	repo  core.Repository
}

// NewRegisterService crea el servicio de alta de cuentas.
func NewRegisterService(d RegisterDeps) RegisterService {
	return &registerService{codec: d.Codec, repo: d.Repo}
}

// Register crea la cuenta con rol viewer y la deja logueada en el mismo
// paso. Los roles con más permisos se asignan después, desde el área admin.
func (s *registerService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("auth: invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("auth: password must have at least %d characters", minPasswordLen)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hashing password: %w", err)
	}

	u := &core.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         core.RoleViewer,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.From(ctx).Info("account created",
		logger.Component("auth"),
		logger.UserID(u.ID),
		logger.Email(u.Email),
	)

	return issueSession(s.codec, u)
}
