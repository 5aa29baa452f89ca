package core

import "time"

// Role es el rol de un usuario dentro del portal.
// El set es cerrado: cualquier otro valor se considera inválido.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid indica si el rol pertenece al set conocido.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// ParseRole normaliza y valida un rol serializado (ej: claim de un token).
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthUser es la identidad resuelta de un request: el claim del token
// cruzado contra el registro vivo del store.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
