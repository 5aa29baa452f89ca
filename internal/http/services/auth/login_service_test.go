package auth

import (
	"context"
	"testing"

	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/security/password"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/campuslibre/portal/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, repo core.Repository, email, pass string, role core.Role) *core.User {
	t.Helper()
	hash, err := password.Hash(pass)
	require.NoError(t, err)
	u := &core.User{ID: "u-" + email, Email: email, Role: role, PasswordHash: hash}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func TestLoginHappyPath(t *testing.T) {
	repo := memory.New()
	codec := newTestCodec()
	seedAccount(t, repo, "ana@example.org", "correcthorse", core.RoleEditor)

	svc := NewLoginService(LoginDeps{Codec: codec, Repo: repo})
	res, err := svc.Login(context.Background(), LoginInput{
		Email:    "  Ana@Example.org ", // se normaliza
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", res.User.Email)
	assert.Equal(t, core.RoleEditor, res.User.Role)

	// Los dos tokens salen verificables con su tipo.
	claims, err := codec.Verify(res.Tokens.Access, jwtx.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)

	_, err = codec.Verify(res.Tokens.Refresh, jwtx.KindRefresh)
	require.NoError(t, err)

	assert.True(t, res.Tokens.RefreshExpires.After(res.Tokens.AccessExpires))
}

func TestLoginBadPassword(t *testing.T) {
	repo := memory.New()
	seedAccount(t, repo, "ana@example.org", "correcthorse", core.RoleViewer)

	svc := NewLoginService(LoginDeps{Codec: newTestCodec(), Repo: repo})
	_, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.org", Password: "equivocado"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := NewLoginService(LoginDeps{Codec: newTestCodec(), Repo: memory.New()})

	// Cuenta inexistente y password incorrecto devuelven el mismo error:
	// no se filtra qué emails tienen cuenta.
	_, err := svc.Login(context.Background(), LoginInput{Email: "nadie@example.org", Password: "lo-que-sea"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginEmptyInput(t *testing.T) {
	svc := NewLoginService(LoginDeps{Codec: newTestCodec(), Repo: memory.New()})

	_, err := svc.Login(context.Background(), LoginInput{})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestRegisterCreatesViewerAndLogsIn(t *testing.T) {
	repo := memory.New()
	codec := newTestCodec()
	svc := NewRegisterService(RegisterDeps{Codec: codec, Repo: repo})

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Nueva@Example.org",
		Name:     "Nueva Cuenta",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, core.RoleViewer, res.User.Role)
	assert.Equal(t, "nueva@example.org", res.User.Email)
	assert.NotEmpty(t, res.Tokens.Access)

	// Quedó persistida y puede loguearse.
	login := NewLoginService(LoginDeps{Codec: codec, Repo: repo})
	_, err = login.Login(context.Background(), LoginInput{Email: "nueva@example.org", Password: "password123"})
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := memory.New()
	seedAccount(t, repo, "ana@example.org", "correcthorse", core.RoleViewer)

	svc := NewRegisterService(RegisterDeps{Codec: newTestCodec(), Repo: repo})
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.org",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewRegisterService(RegisterDeps{Codec: newTestCodec(), Repo: memory.New()})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "sin-arroba", Password: "password123"})
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "ok@example.org", Password: "corta"})
	assert.Error(t, err)
}
