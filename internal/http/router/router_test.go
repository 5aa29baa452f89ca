package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	adminctl "github.com/campuslibre/portal/internal/http/controllers/admin"
	authctl "github.com/campuslibre/portal/internal/http/controllers/auth"
	portalctl "github.com/campuslibre/portal/internal/http/controllers/portal"
	securityctl "github.com/campuslibre/portal/internal/http/controllers/security"
	"github.com/campuslibre/portal/internal/http/helpers"
	"github.com/campuslibre/portal/internal/http/middlewares"
	adminsvc "github.com/campuslibre/portal/internal/http/services/admin"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	secsvc "github.com/campuslibre/portal/internal/http/services/security"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/security/csrf"
	"github.com/campuslibre/portal/internal/security/password"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/campuslibre/portal/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	handler http.Handler
	repo    core.Repository
	codec   *jwtx.Codec
}

func newEnv(t *testing.T) *env {
	t.Helper()

	repo := memory.New()
	codec := jwtx.New(jwtx.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
	csrfStore := csrf.NewMemoryStore()
	gate := authsvc.NewGate()
	resolver := authsvc.NewSessionResolver(authsvc.ResolverDeps{Codec: codec, Repo: repo})

	handler := New(Deps{
		Auth: authctl.New(authctl.Deps{
			Login:    authsvc.NewLoginService(authsvc.LoginDeps{Codec: codec, Repo: repo}),
			Register: authsvc.NewRegisterService(authsvc.RegisterDeps{Codec: codec, Repo: repo}),
			Resolver: resolver,
			Gate:     gate,
		}),
		Security: securityctl.New(securityctl.Deps{
			CSRF:     secsvc.NewCSRFService(csrfStore),
			Resolver: resolver,
			Gate:     gate,
		}),
		Admin: adminctl.New(adminctl.Deps{
			Users:    adminsvc.NewUsersService(adminsvc.UsersDeps{Repo: repo}),
			Resolver: resolver,
			Gate:     gate,
		}),
		Portal:    portalctl.New(portalctl.Deps{Resolver: resolver, Gate: gate}),
		Codec:     codec,
		CSRFStore: csrfStore,
		Repo:      repo,
		Edge: middlewares.EdgeConfig{
			ProtectedPrefixes: []string{"/panel"},
			AdminPrefix:       "/admin",
			LoginPath:         "/login",
			AdminLoginPath:    "/admin/login",
			EntryPaths:        []string{"/login", "/registro"},
			LandingPath:       "/panel",
		},
	})
	return &env{handler: handler, repo: repo, codec: codec}
}

func (e *env) seed(t *testing.T, email, pass string, role core.Role) *core.User {
	t.Helper()
	hash, err := password.Hash(pass)
	require.NoError(t, err)
	u := &core.User{ID: "u-" + email, Email: email, Role: role, PasswordHash: hash}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return u
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func jsonReq(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestPagesBehindEdgeGuard(t *testing.T) {
	e := newEnv(t)

	// Página protegida sin sesión → redirect.
	rec := e.do(httptest.NewRequest(http.MethodGet, "/panel", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// Login abierto a anónimos.
	rec = e.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestRegisterLoginMeFlow(t *testing.T) {
	e := newEnv(t)

	// Alta de cuenta, queda logueada.
	rec := e.do(jsonReq(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "ana@example.org", "name": "Ana", "password": "password123",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var access *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == helpers.AccessCookie {
			access = ck
		}
	}
	require.NotNil(t, access)

	// La cookie alcanza para /v1/auth/me.
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.AddCookie(access)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.org")

	// Y para entrar al panel sin redirect.
	req = httptest.NewRequest(http.MethodGet, "/panel", nil)
	req.AddCookie(access)
	rec = e.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFTokenFlow(t *testing.T) {
	e := newEnv(t)
	admin := e.seed(t, "root@example.org", "correcthorse", core.RoleAdmin)
	viewer := e.seed(t, "ana@example.org", "correcthorse", core.RoleViewer)

	tok, _, err := e.codec.Issue(admin.ID, admin.Email, admin.Role, jwtx.KindAccess)
	require.NoError(t, err)
	accessCk := &http.Cookie{Name: helpers.AccessCookie, Value: tok}

	// Sin sesión el endpoint CSRF rechaza.
	rec := e.do(httptest.NewRequest(http.MethodGet, "/v1/security/csrf", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Con sesión entrega el token.
	req := httptest.NewRequest(http.MethodGet, "/v1/security/csrf", nil)
	req.AddCookie(accessCk)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	// Mutación por cookie sin header CSRF → rechazada.
	req = jsonReq(http.MethodPatch, "/v1/admin/users/"+viewer.ID+"/role", map[string]string{"role": "editor"})
	req.AddCookie(accessCk)
	rec = e.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Con el header correcto pasa y el rol cambia.
	req = jsonReq(http.MethodPatch, "/v1/admin/users/"+viewer.ID+"/role", map[string]string{"role": "editor"})
	req.AddCookie(accessCk)
	req.Header.Set("X-CSRF-Token", body.Token)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := e.repo.GetUserByID(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleEditor, updated.Role)
}

func TestAdminEndpointsEnforceRole(t *testing.T) {
	e := newEnv(t)
	viewer := e.seed(t, "ana@example.org", "correcthorse", core.RoleViewer)

	tok, _, err := e.codec.Issue(viewer.ID, viewer.Email, viewer.Role, jwtx.KindAccess)
	require.NoError(t, err)

	// Viewer autenticado contra endpoint admin → 403 (Bearer, exento de CSRF).
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := e.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Anónimo → 401.
	rec = e.do(httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMaterialsRequiresEditor(t *testing.T) {
	e := newEnv(t)
	viewer := e.seed(t, "ana@example.org", "x", core.RoleViewer)
	editor := e.seed(t, "edu@example.org", "x", core.RoleEditor)

	vtok, _, err := e.codec.Issue(viewer.ID, viewer.Email, viewer.Role, jwtx.KindAccess)
	require.NoError(t, err)
	etok, _, err := e.codec.Issue(editor.ID, editor.Email, editor.Role, jwtx.KindAccess)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/materials", nil)
	req.Header.Set("Authorization", "Bearer "+vtok)
	assert.Equal(t, http.StatusForbidden, e.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/materials", nil)
	req.Header.Set("Authorization", "Bearer "+etok)
	assert.Equal(t, http.StatusOK, e.do(req).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
