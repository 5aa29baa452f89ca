package core

import "context"

// Repository es el contrato mínimo de persistencia que consume el core de auth.
// El portal solo LEE usuarios durante la resolución de sesión; las escrituras
// existen para registro y administración.
type Repository interface {
	Ping(ctx context.Context) error

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	UpdateUserRole(ctx context.Context, id string, role Role) error
	DeleteUser(ctx context.Context, id string) error

	Close()
}
