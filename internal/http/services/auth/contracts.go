package auth

import (
	"context"
	"errors"
	"time"

	"github.com/campuslibre/portal/internal/store/core"
)

// Errores de negocio del dominio auth. Los controllers los mapean a HTTP.
var (
	// ErrBadCredentials cubre tanto email inexistente como password
	// incorrecto: no distinguimos para no filtrar qué cuentas existen.
	ErrBadCredentials = errors.New("auth: bad credentials")

	// ErrEmailTaken: registro con un email ya usado.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrUnauthorized: la operación requiere sesión y no hay.
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrForbidden: hay sesión pero el rol no alcanza.
	ErrForbidden = errors.New("auth: forbidden")
)

// TokenPair es el resultado de una emisión completa (login o registro).
type TokenPair struct {
	Access        string
	AccessExpires time.Time

	Refresh        string
	RefreshExpires time.Time
}

// LoginResult agrupa el usuario autenticado y sus tokens.
type LoginResult struct {
	User   core.AuthUser
	Tokens TokenPair
}

// LoginInput son las credenciales del formulario de login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput es el alta de una cuenta nueva.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginService autentica credenciales y emite tokens.
type LoginService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

// RegisterService da de alta una cuenta y la deja logueada.
type RegisterService interface {
	Register(ctx context.Context, in RegisterInput) (*LoginResult, error)
}

// SessionResolver resuelve la identidad autenticada de un request.
// (nil, nil) significa "request anónimo": ausencia de sesión no es error.
type SessionResolver interface {
	Resolve(ctx context.Context, rawToken string) (*core.AuthUser, error)
}
