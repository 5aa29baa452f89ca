// Package security expone el endpoint que entrega el token CSRF de la
// sesión al front.
package security

import (
	"net/http"

	"github.com/campuslibre/portal/internal/http/helpers"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	secsvc "github.com/campuslibre/portal/internal/http/services/security"
	"github.com/campuslibre/portal/internal/observability/logger"
)

// Deps del controller.
type Deps struct {
	CSRF     secsvc.CSRFService
	Resolver authsvc.SessionResolver
	Gate     *authsvc.Gate
}

type Controller struct{ deps Deps }

func New(deps Deps) *Controller { return &Controller{deps: deps} }

// HandleToken procesa GET /v1/security/csrf. Requiere sesión: el token
// CSRF siempre está atado a una sesión concreta. Si la sesión ya tiene un
// token vivo lo devuelve; si no, emite uno nuevo.
func (c *Controller) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := c.deps.Resolver.Resolve(ctx, helpers.AccessTokenFrom(r))
	if err != nil {
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return
	}
	if err := c.deps.Gate.RequireUser(u); err != nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	tok, err := c.deps.CSRF.Token(ctx, u.ID)
	if err != nil {
		logger.From(ctx).Error("csrf issue failed", logger.UserID(u.ID), logger.Err(err))
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]string{"csrf_token": tok})
}
