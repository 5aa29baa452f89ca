package auth

import "github.com/campuslibre/portal/internal/store/core"

// Gate concentra las decisiones de autorización por rol. Es puro: no toca
// red ni store, y no sabe nada de HTTP — los controllers traducen sus
// errores a status codes.
type Gate struct{}

// NewGate crea el gate de acceso.
func NewGate() *Gate { return &Gate{} }

// RequireUser exige sesión presente, cualquier rol.
func (g *Gate) RequireUser(u *core.AuthUser) error {
	if u == nil {
		return ErrUnauthorized
	}
	return nil
}

// RequireRole exige sesión con alguno de los roles listados.
// Sin sesión gana ErrUnauthorized; con sesión y rol insuficiente,
// ErrForbidden. El orden importa: primero autenticación, después rol.
func (g *Gate) RequireRole(u *core.AuthUser, roles ...core.Role) error {
	if u == nil {
		return ErrUnauthorized
	}
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// RequireAdmin: solo admin.
func (g *Gate) RequireAdmin(u *core.AuthUser) error {
	return g.RequireRole(u, core.RoleAdmin)
}

// RequireEditor: admin o editor. Un admin puede todo lo que puede un editor.
func (g *Gate) RequireEditor(u *core.AuthUser) error {
	return g.RequireRole(u, core.RoleAdmin, core.RoleEditor)
}
