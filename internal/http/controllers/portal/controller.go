// Package portal expone los endpoints del panel del portal educativo.
package portal

import (
	"errors"
	"net/http"
	"time"

	"github.com/campuslibre/portal/internal/http/helpers"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	"github.com/campuslibre/portal/internal/store/core"
)

// Material es una pieza de contenido del catálogo educativo.
type Material struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deps del controller.
type Deps struct {
	Resolver authsvc.SessionResolver
	Gate     *authsvc.Gate

	// Catalog es el catálogo servido por /v1/materials. El portal lo carga
	// al arranque; la edición en caliente queda para el CMS.
	Catalog []Material
}

type Controller struct {
	deps  Deps
	start time.Time
}

func New(deps Deps) *Controller {
	return &Controller{deps: deps, start: time.Now().UTC()}
}

func (c *Controller) resolve(w http.ResponseWriter, r *http.Request) (*core.AuthUser, bool) {
	u, err := c.deps.Resolver.Resolve(r.Context(), helpers.AccessTokenFrom(r))
	if err != nil {
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return nil, false
	}
	return u, true
}

// HandleOverview procesa GET /v1/panel/overview: el resumen del panel para
// cualquier cuenta logueada.
func (c *Controller) HandleOverview(w http.ResponseWriter, r *http.Request) {
	u, ok := c.resolve(w, r)
	if !ok {
		return
	}
	if err := c.deps.Gate.RequireUser(u); err != nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"user":         u,
		"role":         u.Role,
		"can_edit":     u.Role == core.RoleAdmin || u.Role == core.RoleEditor,
		"server_since": c.start,
	})
}

// HandleMaterials procesa GET /v1/materials: el listado de gestión de
// materiales. Solo editores y admins; un viewer logueado recibe 403.
func (c *Controller) HandleMaterials(w http.ResponseWriter, r *http.Request) {
	u, ok := c.resolve(w, r)
	if !ok {
		return
	}
	switch err := c.deps.Gate.RequireEditor(u); {
	case errors.Is(err, authsvc.ErrUnauthorized):
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	case errors.Is(err, authsvc.ErrForbidden):
		helpers.WriteError(w, helpers.ErrForbidden.WithDetail("editor role required"))
		return
	}

	materials := c.deps.Catalog
	if materials == nil {
		materials = []Material{}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"materials": materials,
		"count":     len(materials),
	})
}
