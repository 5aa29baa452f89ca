package helpers

import (
	"net/http"
	"strings"
	"time"
)

// Nombres de cookie del portal. El access token NO es HttpOnly (lo lee el
// JS del front para mandar Authorization en llamadas fetch); refresh y
// admin-token sí lo son.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	AdminCookie   = "admin-token"
)

func ParseSameSite(s string) http.SameSite {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func BuildCookie(name, value, domain, sameSite string, httpOnly, secure bool, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

// BuildDeletionCookie arma la cookie de borrado (max-age 0).
func BuildDeletionCookie(name, domain string, secure bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	return ck
}

// ClearSessionCookies borra las tres cookies de sesión. Es un no-op seguro
// si el cliente no tenía ninguna.
func ClearSessionCookies(w http.ResponseWriter, domain string, secure bool) {
	http.SetCookie(w, BuildDeletionCookie(AccessCookie, domain, secure))
	http.SetCookie(w, BuildDeletionCookie(RefreshCookie, domain, secure))
	http.SetCookie(w, BuildDeletionCookie(AdminCookie, domain, secure))
}

// BearerToken extrae el token del header Authorization, si está.
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("Bearer "):])
}

// AccessTokenFrom extrae el access token candidato de un request:
// primero Authorization: Bearer, después la cookie access_token.
func AccessTokenFrom(r *http.Request) string {
	if tok := BearerToken(r); tok != "" {
		return tok
	}
	if ck, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}
