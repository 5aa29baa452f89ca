// Package auth expone los endpoints de autenticación del portal:
// login, registro, logout y la identidad de la sesión actual.
package auth

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campuslibre/portal/internal/http/helpers"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	"github.com/campuslibre/portal/internal/metrics"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/rate"
	"github.com/campuslibre/portal/internal/store/core"
)

// Deps del controller.
type Deps struct {
	Login    authsvc.LoginService
	Register authsvc.RegisterService
	Resolver authsvc.SessionResolver
	Gate     *authsvc.Gate

	// Cookies
	CookieDomain string
	CookieSecure bool

	// Limiter opcional para el login (nil = sin límite, dev).
	LoginLimiter rate.Limiter
}

type Controller struct{ deps Deps }

func New(deps Deps) *Controller { return &Controller{deps: deps} }

type sessionResponse struct {
	User      core.AuthUser `json:"user"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// HandleLogin procesa POST /v1/auth/login.
func (c *Controller) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if c.deps.LoginLimiter != nil {
		res, err := c.deps.LoginLimiter.Allow(ctx, "login:"+clientIP(r))
		if err != nil {
			// Redis caído no bloquea el login: se loguea y se sigue.
			logger.From(ctx).Warn("login rate limiter unavailable", logger.Err(err))
		} else if !res.Allowed {
			metrics.Logins.WithLabelValues("rate_limited").Inc()
			w.Header().Set("Retry-After", retryAfterSeconds(res.RetryAfter))
			helpers.WriteError(w, helpers.ErrTooManyRequests)
			return
		}
	}

	var in authsvc.LoginInput
	if err := helpers.DecodeJSON(r, &in); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	result, err := c.deps.Login.Login(ctx, in)
	if err != nil {
		if errors.Is(err, authsvc.ErrBadCredentials) {
			helpers.WriteError(w, helpers.ErrUnauthorized.WithDetail("invalid email or password"))
			return
		}
		logger.From(ctx).Error("login failed", logger.Err(err))
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return
	}

	c.setSessionCookies(w, result)
	helpers.WriteJSON(w, http.StatusOK, sessionResponse{
		User:      result.User,
		ExpiresAt: result.Tokens.AccessExpires,
	})
}

// HandleRegister procesa POST /v1/auth/register. La cuenta nueva queda
// logueada en la misma respuesta.
func (c *Controller) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in authsvc.RegisterInput
	if err := helpers.DecodeJSON(r, &in); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	result, err := c.deps.Register.Register(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken):
			helpers.WriteError(w, helpers.ErrConflict.WithDetail("email already registered"))
		case strings.HasPrefix(err.Error(), "auth: "):
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail(strings.TrimPrefix(err.Error(), "auth: ")))
		default:
			logger.From(ctx).Error("register failed", logger.Err(err))
			helpers.WriteError(w, helpers.ErrInternalServerError)
		}
		return
	}

	c.setSessionCookies(w, result)
	helpers.WriteJSON(w, http.StatusCreated, sessionResponse{
		User:      result.User,
		ExpiresAt: result.Tokens.AccessExpires,
	})
}

// HandleLogout procesa POST /v1/auth/logout. Idempotente: sin sesión
// previa responde igual que con ella.
func (c *Controller) HandleLogout(w http.ResponseWriter, r *http.Request) {
	helpers.ClearSessionCookies(w, c.deps.CookieDomain, c.deps.CookieSecure)
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleMe procesa GET /v1/auth/me: la identidad de la sesión actual.
func (c *Controller) HandleMe(w http.ResponseWriter, r *http.Request) {
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

	helpers.WriteJSON(w, http.StatusOK, map[string]core.AuthUser{"user": *u})
}

// setSessionCookies instala las cookies de sesión:
//   - access_token: legible por JS (SameSite=Lax), vida del access token.
//   - refresh_token: HttpOnly + Strict, vida del refresh token.
//   - admin-token: solo para admins, HttpOnly + Strict. La usa el guard
//     del área /admin.
func (c *Controller) setSessionCookies(w http.ResponseWriter, res *authsvc.LoginResult) {
	accessTTL := time.Until(res.Tokens.AccessExpires)
	refreshTTL := time.Until(res.Tokens.RefreshExpires)

	http.SetCookie(w, helpers.BuildCookie(
		helpers.AccessCookie, res.Tokens.Access,
		c.deps.CookieDomain, "lax", false, c.deps.CookieSecure, accessTTL))
	http.SetCookie(w, helpers.BuildCookie(
		helpers.RefreshCookie, res.Tokens.Refresh,
		c.deps.CookieDomain, "strict", true, c.deps.CookieSecure, refreshTTL))

	if res.User.Role == core.RoleAdmin {
		http.SetCookie(w, helpers.BuildCookie(
			helpers.AdminCookie, res.Tokens.Access,
			c.deps.CookieDomain, "strict", true, c.deps.CookieSecure, accessTTL))
	}
}

func clientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
