// Package router arma el árbol de rutas del portal.
package router

import (
	"context"
	"net/http"
	"time"

	adminctl "github.com/campuslibre/portal/internal/http/controllers/admin"
	authctl "github.com/campuslibre/portal/internal/http/controllers/auth"
	portalctl "github.com/campuslibre/portal/internal/http/controllers/portal"
	securityctl "github.com/campuslibre/portal/internal/http/controllers/security"
	"github.com/campuslibre/portal/internal/http/helpers"
	"github.com/campuslibre/portal/internal/http/middlewares"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/metrics"
	"github.com/campuslibre/portal/internal/security/csrf"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/go-chi/chi/v5"
)

// Deps agrupa todo lo que el router necesita para armar el árbol.
type Deps struct {
	Auth     *authctl.Controller
	Security *securityctl.Controller
	Admin    *adminctl.Controller
	Portal   *portalctl.Controller

	Codec     *jwtx.Codec
	CSRFStore csrf.Store
	Repo      core.Repository

	Edge        middlewares.EdgeConfig
	CORSOrigins []string
}

// New arma el handler raíz: middlewares globales, API /v1, páginas y
// endpoints operativos.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Orden: request id primero (lo usan los logs), edge guard al final
	// (decide redirects de páginas antes de cualquier handler).
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithCORS(d.CORSOrigins))
	r.Use(middlewares.EdgeGuard(d.Edge, d.Codec))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", d.Auth.HandleLogin)
			r.Post("/register", d.Auth.HandleRegister)
			r.Post("/logout", d.Auth.HandleLogout)
			r.Get("/me", d.Auth.HandleMe)
		})

		// Las rutas con estado detrás de sesión llevan el check CSRF para
		// el flujo de cookies (con Bearer se saltea).
		r.Group(func(r chi.Router) {
			r.Use(middlewares.WithCSRF(d.CSRFStore, d.Codec))

			r.Get("/security/csrf", d.Security.HandleToken)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", d.Admin.HandleListUsers)
				r.Patch("/users/{id}/role", d.Admin.HandleSetRole)
			})

			r.Get("/panel/overview", d.Portal.HandleOverview)
			r.Get("/materials", d.Portal.HandleMaterials)
		})
	})

	// Páginas server-rendered. El edge guard ya corrió: si llegamos acá,
	// el request tiene permitido ver la página.
	r.Get("/", page("Campus Libre", "Portal educativo abierto."))
	r.Get("/login", page("Ingresar", "Formulario de ingreso."))
	r.Get("/registro", page("Crear cuenta", "Formulario de registro."))
	r.Get("/panel", page("Panel", "Panel del estudiante."))
	r.Get("/admin", page("Administración", "Panel de administración."))
	r.Get("/admin/login", page("Ingreso admin", "Acceso al área de administración."))

	r.Get("/healthz", healthz(d.Repo))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// page devuelve un handler de página mínimo. El render real con templates
// vive en el repo del front; el portal sirve el esqueleto.
func page(title, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(
			"<!doctype html><html lang=\"es\"><head><title>" + title +
				"</title></head><body><h1>" + title + "</h1><p>" + body + "</p></body></html>\n"))
	}
}

func healthz(repo core.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "store": err.Error(),
			})
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
