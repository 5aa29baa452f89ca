package auth

import (
	"context"
	"errors"
	"strings"

	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/metrics"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/security/password"
	"github.com/campuslibre/portal/internal/store/core"
)

// LoginDeps arma el servicio de login.
type LoginDeps struct {
	Codec *jwtx.Codec
	Repo  core.Repository
}

type loginService struct {
	codec *jwtx.Codec
	repo  core.Repository
}

// NewLoginService crea el servicio que autentica credenciales.
func NewLoginService(d LoginDeps) LoginService {
	return &loginService{codec: d.Codec, repo: d.Repo}
}

func (s *loginService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrBadCredentials
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			metrics.Logins.WithLabelValues("bad_credentials").Inc()
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if !password.Verify(u.PasswordHash, in.Password) {
		metrics.Logins.WithLabelValues("bad_credentials").Inc()
		return nil, ErrBadCredentials
	}

	result, err := issueSession(s.codec, u)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	logger.From(ctx).Info("login ok",
		logger.Component("auth"),
		logger.UserID(u.ID),
		logger.Role(string(u.Role)),
	)
	return result, nil
}

// issueSession emite el par access+refresh para una cuenta ya autenticada.
// Lo comparten login y registro.
func issueSession(codec *jwtx.Codec, u *core.User) (*LoginResult, error) {
	access, accessExp, err := codec.Issue(u.ID, u.Email, u.Role, jwtx.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := codec.Issue(u.ID, u.Email, u.Role, jwtx.KindRefresh)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User: core.AuthUser{ID: u.ID, Email: u.Email, Role: u.Role},
		Tokens: TokenPair{
			Access:         access,
			AccessExpires:  accessExp,
			Refresh:        refresh,
			RefreshExpires: refreshExp,
		},
	}, nil
}
