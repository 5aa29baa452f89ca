package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuslibre/portal/internal/http/helpers"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEdgeCfg = EdgeConfig{
	ProtectedPrefixes: []string{"/panel"},
	AdminPrefix:       "/admin",
	LoginPath:         "/login",
	AdminLoginPath:    "/admin/login",
	EntryPaths:        []string{"/login", "/registro"},
	LandingPath:       "/panel",
}

func edgeCodec() *jwtx.Codec {
	return jwtx.New(jwtx.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
}

func issueAccess(t *testing.T, c *jwtx.Codec) string {
	t.Helper()
	raw, _, err := c.Issue("u-1", "ana@example.org", core.RoleViewer, jwtx.KindAccess)
	require.NoError(t, err)
	return raw
}

func issueExpiredAccess(t *testing.T) string {
	t.Helper()
	past := time.Now().Add(-72 * time.Hour)
	issuer := jwtx.New(jwtx.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}, jwtx.WithClock(func() time.Time { return past }))
	raw, _, err := issuer.Issue("u-1", "ana@example.org", core.RoleViewer, jwtx.KindAccess)
	require.NoError(t, err)
	return raw
}

// serveEdge pasa el request por el guard con un handler final que marca 200.
func serveEdge(codec *jwtx.Codec, req *http.Request) *httptest.ResponseRecorder {
	handler := EdgeGuard(testEdgeCfg, codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func withAccessCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token})
	return req
}

func TestEdgeProtectedWithoutSessionRedirectsToLogin(t *testing.T) {
	codec := edgeCodec()

	rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, "/panel", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestEdgeProtectedWithValidSessionPasses(t *testing.T) {
	codec := edgeCodec()
	req := withAccessCookie(httptest.NewRequest(http.MethodGet, "/panel/cursos", nil), issueAccess(t, codec))

	rec := serveEdge(codec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEdgeExpiredTokenIsTreatedAsUnauthenticated(t *testing.T) {
	codec := edgeCodec()
	req := withAccessCookie(httptest.NewRequest(http.MethodGet, "/panel", nil), issueExpiredAccess(t))

	rec := serveEdge(codec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestEdgeAdminRedirectCarriesNextHint(t *testing.T) {
	codec := edgeCodec()

	rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fusers", rec.Header().Get("Location"))
}

func TestEdgeAdminAcceptsAdminCookie(t *testing.T) {
	codec := edgeCodec()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: helpers.AdminCookie, Value: issueAccess(t, codec)})

	rec := serveEdge(codec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEdgeAdminLoginPageIsReachableWithoutSession(t *testing.T) {
	codec := edgeCodec()

	rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEdgeEntryPageRedirectsAuthenticatedUserToLanding(t *testing.T) {
	codec := edgeCodec()

	for _, path := range []string{"/login", "/registro"} {
		req := withAccessCookie(httptest.NewRequest(http.MethodGet, path, nil), issueAccess(t, codec))
		rec := serveEdge(codec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/panel", rec.Header().Get("Location"), path)
	}
}

func TestEdgeEntryPageOpenForAnonymous(t *testing.T) {
	codec := edgeCodec()

	rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEdgeUnrelatedPathsPassThrough(t *testing.T) {
	codec := edgeCodec()

	// /panelito NO está bajo /panel: el match es por segmento.
	for _, path := range []string{"/", "/acerca", "/panelito", "/administracion"} {
		rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestEdgeDecisionIsDeterministic(t *testing.T) {
	codec := edgeCodec()

	for i := 0; i < 5; i++ {
		rec := serveEdge(codec, httptest.NewRequest(http.MethodGet, "/panel", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	}
}

func TestEdgeBearerHeaderAlsoCounts(t *testing.T) {
	codec := edgeCodec()
	req := httptest.NewRequest(http.MethodGet, "/panel", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec))

	rec := serveEdge(codec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
