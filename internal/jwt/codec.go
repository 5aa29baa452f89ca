// Package jwt implementa el códec de tokens de identidad del portal.
//
// Dos tipos de token, con secreto y vida útil propios:
//   - access:  corto (24h por defecto), autoriza cada request.
//   - refresh: largo (7d por defecto), reservado para re-emitir access
//     tokens (el endpoint de intercambio es un punto de extensión, no
//     existe todavía).
//
// Firmado HMAC (HS256). El códec es puro: función de (token, secreto,
// reloj), sin efectos ni I/O.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/campuslibre/portal/internal/store/core"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind distingue access de refresh.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Defaults de emisión.
const (
	DefaultIssuer     = "campuslibre-portal"
	DefaultAudience   = "portal-web"
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrTokenInvalid cubre todos los modos de fallo de verificación: estructura
// malformada, firma inválida, iss/aud ajenos, vencimiento o rol desconocido.
// Quien llama lo trata como "no hay sesión válida", nunca como error duro.
var ErrTokenInvalid = errors.New("jwt: invalid token")

// Claims es el payload de identidad embebido en cada token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtv5.RegisteredClaims
}

// UserRole devuelve el rol tipado del claim. Solo válido después de Verify.
func (c *Claims) UserRole() core.Role { return core.Role(c.Role) }

// Config del códec. Los secretos son de proceso: se cargan una vez desde el
// entorno y no mutan después del arranque.
type Config struct {
	Issuer        string
	Audience      string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Codec struct {
	cfg Config
	now func() time.Time
}

// Option configura el códec.
type Option func(*Codec)

// WithClock inyecta el reloj (tests de borde de expiración).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Codec {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	c := &Codec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) secret(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return c.cfg.AccessSecret, nil
	case KindRefresh:
		return c.cfg.RefreshSecret, nil
	}
	return nil, fmt.Errorf("jwt: unknown token kind %q", kind)
}

func (c *Codec) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.cfg.RefreshTTL
	}
	return c.cfg.AccessTTL
}

// TTL expone la vida útil configurada por tipo (para armar cookies).
func (c *Codec) TTL(kind Kind) time.Duration { return c.ttl(kind) }

// Issue firma un token del tipo pedido para la identidad dada.
// Siempre tiene éxito con claims bien formados.
func (c *Codec) Issue(sub, email string, role core.Role, kind Kind) (string, time.Time, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := c.now().UTC()
	exp := now.Add(c.ttl(kind))

	claims := Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   sub,
			Audience:  jwtv5.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify valida firma, issuer, audience y vencimiento, en ese orden: la
// firma se comprueba antes de confiar en cualquier claim del payload.
// El borde es estricto: un token emitido en t con vida L es inválido desde
// exactamente t+L. Sin leeway.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	keyfunc := func(t *jwtv5.Token) (any, error) { return secret, nil }

	tok, err := jwtv5.ParseWithClaims(raw, &Claims{}, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(c.cfg.Issuer),
		jwtv5.WithAudience(c.cfg.Audience),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	// Un rol fuera del set conocido invalida el token acá, no solo en la
	// capa de aplicación.
	if _, ok := core.ParseRole(claims.Role); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims, nil
}
