// Package admin expone los endpoints del área de administración de cuentas.
// Todos exigen rol admin.
package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/campuslibre/portal/internal/http/helpers"
	adminsvc "github.com/campuslibre/portal/internal/http/services/admin"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/go-chi/chi/v5"
)

// Deps del controller.
type Deps struct {
	Users    adminsvc.UsersService
	Resolver authsvc.SessionResolver
	Gate     *authsvc.Gate

	// DetailErrors agrega el mensaje interno en respuestas 5xx (dev).
	DetailErrors bool
}

type Controller struct{ deps Deps }

func New(deps Deps) *Controller { return &Controller{deps: deps} }

// userView es la proyección pública de una cuenta en el área admin.
// Nunca incluye el hash de password.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      core.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toView(u *core.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// requireAdmin corta el request si la sesión no es de un admin.
// Devuelve el admin resuelto, o nil si ya respondió el error.
func (c *Controller) requireAdmin(w http.ResponseWriter, r *http.Request) *core.AuthUser {
	u, err := c.deps.Resolver.Resolve(r.Context(), helpers.AccessTokenFrom(r))
	if err != nil {
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return nil
	}
	switch err := c.deps.Gate.RequireAdmin(u); {
	case errors.Is(err, authsvc.ErrUnauthorized):
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return nil
	case errors.Is(err, authsvc.ErrForbidden):
		helpers.WriteError(w, helpers.ErrForbidden)
		return nil
	}
	return u
}

// HandleListUsers procesa GET /v1/admin/users?limit=&offset=.
func (c *Controller) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if c.requireAdmin(w, r) == nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := c.deps.Users.List(r.Context(), limit, offset)
	if err != nil {
		c.writeInternal(w, r, "listing users", err)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toView(&users[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"users": views, "count": len(views)})
}

// HandleSetRole procesa PATCH /v1/admin/users/{id}/role.
func (c *Controller) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	admin := c.requireAdmin(w, r)
	if admin == nil {
		return
	}

	userID := chi.URLParam(r, "id")
	var body struct {
		Role string `json:"role"`
	}
	if err := helpers.DecodeJSON(r, &body); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	u, err := c.deps.Users.SetRole(r.Context(), userID, body.Role)
	if err != nil {
		switch {
		case errors.Is(err, adminsvc.ErrUnknownRole):
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail(err.Error()))
		case errors.Is(err, core.ErrNotFound):
			helpers.WriteError(w, helpers.ErrNotFound.WithDetail("user not found"))
		default:
			c.writeInternal(w, r, "updating role", err)
		}
		return
	}

	logger.From(r.Context()).Info("admin changed role",
		logger.Component("admin"),
		logger.UserID(admin.ID),
		logger.String("target_id", userID),
		logger.Role(string(u.Role)),
	)
	helpers.WriteJSON(w, http.StatusOK, map[string]userView{"user": toView(u)})
}

func (c *Controller) writeInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.From(r.Context()).Error("admin operation failed",
		logger.Op(op),
		logger.Err(err),
	)
	out := helpers.ErrInternalServerError
	if c.deps.DetailErrors {
		out = out.WithDetail(err.Error())
	}
	helpers.WriteError(w, out)
}
