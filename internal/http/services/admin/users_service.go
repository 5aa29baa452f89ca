package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/store/core"
)

// ErrUnknownRole: el rol pedido no existe.
var ErrUnknownRole = errors.New("admin: unknown role")

// UsersService son las operaciones del área de administración de cuentas.
type UsersService interface {
	List(ctx context.Context, limit, offset int) ([]core.User, error)
	SetRole(ctx context.Context, userID, role string) (*core.User, error)
}

// UsersDeps arma el servicio.
type UsersDeps struct {
	Repo core.Repository
}

type usersService struct {
	repo core.Repository
}

// NewUsersService crea el servicio de administración de usuarios.
func NewUsersService(d UsersDeps) UsersService {
	return &usersService{repo: d.Repo}
}

func (s *usersService) List(ctx context.Context, limit, offset int) ([]core.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListUsers(ctx, limit, offset)
}

// SetRole cambia el rol de una cuenta. El cambio pega de inmediato en los
// endpoints autenticados porque el rol efectivo sale siempre del store,
// no del token.
func (s *usersService) SetRole(ctx context.Context, userID, role string) (*core.User, error) {
	parsed, ok := core.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if err := s.repo.UpdateUserRole(ctx, userID, parsed); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("role updated",
		logger.Component("admin"),
		logger.UserID(userID),
		logger.Role(string(parsed)),
	)
	return u, nil
}
