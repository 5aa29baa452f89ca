package middlewares

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/campuslibre/portal/internal/http/helpers"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/metrics"
)

// EdgeConfig define el ruteo del guard pre-render.
type EdgeConfig struct {
	// Prefijos de páginas que requieren sesión (ej: /panel).
	ProtectedPrefixes []string
	// Prefijo del área de administración (ej: /admin).
	AdminPrefix string
	// Login general y login del área admin.
	LoginPath      string
	AdminLoginPath string
	// Páginas de entrada (login, registro): un usuario ya autenticado
	// no debería poder verlas.
	EntryPaths []string
	// Destino por defecto para usuarios autenticados.
	LandingPath string
}

// Estado del request frente al guard.
type edgeState int

const (
	edgeUnauthenticated edgeState = iota
	edgeValid
	edgeInvalid // token presente pero vencido o inválido
)

// EdgeGuard corre ANTES del render de páginas, una vez por request.
// Decide con firma+vencimiento solamente — jamás toca persistencia ni hace
// I/O bloqueante: corre también para assets estáticos y cualquier espera
// acá acopla la latencia de todo el sitio.
//
// Reglas:
//   - Prefijo protegido sin sesión válida → redirect al login (el área
//     admin agrega next= con la ruta original; el resto va al login pelado).
//   - Página de entrada con sesión válida → redirect al landing.
//   - Todo lo demás pasa sin tocar.
//
// Mismo estado de entrada, misma decisión: acá no hay aleatoriedad.
func EdgeGuard(cfg EdgeConfig, codec *jwtx.Codec) Middleware {
	classify := func(raw string) edgeState {
		if raw == "" {
			return edgeUnauthenticated
		}
		if _, err := codec.Verify(raw, jwtx.KindAccess); err != nil {
			metrics.TokenVerifications.WithLabelValues("access", "invalid").Inc()
			return edgeInvalid
		}
		metrics.TokenVerifications.WithLabelValues("access", "ok").Inc()
		return edgeValid
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Páginas de entrada: un usuario con sesión válida no vuelve
			// a ver el formulario de login.
			if isEntryPath(cfg, path) {
				if classify(helpers.AccessTokenFrom(r)) == edgeValid {
					metrics.EdgeRedirects.WithLabelValues("landing").Inc()
					http.Redirect(w, r, cfg.LandingPath, http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Área admin: la sesión se chequea contra la cookie admin-token
			// (con fallback al token regular).
			if cfg.AdminPrefix != "" && underPrefix(path, cfg.AdminPrefix) {
				raw := adminToken(r)
				if classify(raw) != edgeValid {
					target := cfg.AdminLoginPath + "?next=" + url.QueryEscape(path)
					metrics.EdgeRedirects.WithLabelValues("admin_login").Inc()
					http.Redirect(w, r, target, http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Resto de prefijos protegidos: redirect al login pelado, sin
			// mensaje — no filtramos qué rol pide cada ruta.
			for _, prefix := range cfg.ProtectedPrefixes {
				if underPrefix(path, prefix) {
					if classify(helpers.AccessTokenFrom(r)) != edgeValid {
						metrics.EdgeRedirects.WithLabelValues("login").Inc()
						http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
						return
					}
					break
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// adminToken prefiere la cookie admin-token; si no está, cae al candidato
// regular (Bearer o cookie access_token).
func adminToken(r *http.Request) string {
	if ck, err := r.Cookie(helpers.AdminCookie); err == nil && strings.TrimSpace(ck.Value) != "" {
		return strings.TrimSpace(ck.Value)
	}
	return helpers.AccessTokenFrom(r)
}

func isEntryPath(cfg EdgeConfig, path string) bool {
	if path == cfg.AdminLoginPath {
		return true
	}
	for _, p := range cfg.EntryPaths {
		if path == p {
			return true
		}
	}
	return false
}

// underPrefix matchea por segmento: /panel cubre /panel y /panel/x,
// pero no /panelito.
func underPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
