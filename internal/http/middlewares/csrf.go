package middlewares

import (
	"net/http"
	"strings"

	"github.com/campuslibre/portal/internal/http/helpers"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/metrics"
	"github.com/campuslibre/portal/internal/security/csrf"
)

// CSRFHeader es el header donde el front manda el token anti-forgery.
const CSRFHeader = "X-CSRF-Token"

// WithCSRF exige token CSRF para métodos inseguros en flujos de cookies.
// Comportamiento:
//   - Con Authorization: Bearer el check se salta (no es flujo de cookies).
//   - Para POST/PUT/PATCH/DELETE, el header X-CSRF-Token tiene que coincidir
//     con el token vivo guardado para la sesión.
//
// La sesión se deriva del access token por firma solamente (sin store):
// el sub del claim es la key del registro CSRF.
func WithCSRF(store csrf.Store, codec *jwtx.Codec) Middleware {
	isUnsafe := func(m string) bool {
		switch m {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			return true
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUnsafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if helpers.BearerToken(r) != "" {
				next.ServeHTTP(w, r)
				return
			}

			// Sin sesión de cookie válida no hay nada que forjar: el check
			// de autenticación del endpoint responde por su cuenta.
			claims, err := codec.Verify(helpers.AccessTokenFrom(r), jwtx.KindAccess)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			hdr := strings.TrimSpace(r.Header.Get(CSRFHeader))
			if hdr == "" || !store.Verify(r.Context(), claims.Subject, hdr) {
				metrics.CSRFChecks.WithLabelValues("rejected").Inc()
				helpers.WriteError(w, helpers.ErrForbidden.WithDetail("CSRF token missing or mismatch"))
				return
			}

			metrics.CSRFChecks.WithLabelValues("ok").Inc()
			next.ServeHTTP(w, r)
		})
	}
}
