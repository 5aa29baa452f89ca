package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/campuslibre/portal/internal/store/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(now func() time.Time) *Codec {
	cfg := Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	if now != nil {
		return New(cfg, WithClock(now))
	}
	return New(cfg)
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	c := testCodec(nil)

	raw, exp, err := c.Issue("user-1", "ana@example.org", core.RoleEditor, KindAccess)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), exp, 5*time.Second)

	claims, err := c.Verify(raw, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ana@example.org", claims.Email)
	assert.Equal(t, core.RoleEditor, claims.UserRole())
	assert.Equal(t, DefaultIssuer, claims.Issuer)
}

func TestVerifyRejectsCrossKind(t *testing.T) {
	c := testCodec(nil)

	access, _, err := c.Issue("user-1", "a@b.c", core.RoleViewer, KindAccess)
	require.NoError(t, err)
	refresh, _, err := c.Issue("user-1", "a@b.c", core.RoleViewer, KindRefresh)
	require.NoError(t, err)

	// Cada tipo firma con su propio secreto: cruzar tipos falla.
	_, err = c.Verify(access, KindRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = c.Verify(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	c := testCodec(nil)

	raw, _, err := c.Issue("user-1", "a@b.c", core.RoleAdmin, KindAccess)
	require.NoError(t, err)

	// Flip de un byte en la firma (último segmento).
	i := strings.LastIndex(raw, ".")
	require.Greater(t, i, 0)
	sig := []byte(raw[i+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := raw[:i+1] + string(sig)

	_, err = c.Verify(tampered, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpiryBoundaryIsStrict(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	c := testCodec(func() time.Time { return now })

	raw, exp, err := c.Issue("user-1", "a@b.c", core.RoleViewer, KindAccess)
	require.NoError(t, err)
	require.Equal(t, issuedAt.Add(DefaultAccessTTL), exp)

	// Un instante antes del vencimiento: válido.
	now = exp.Add(-time.Second)
	_, err = c.Verify(raw, KindAccess)
	assert.NoError(t, err)

	// Exactamente en el vencimiento: inválido. Sin leeway.
	now = exp
	_, err = c.Verify(raw, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsForeignIssuerAndAudience(t *testing.T) {
	foreign := New(Config{
		Issuer:        "otro-emisor",
		Audience:      "otra-app",
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
	c := testCodec(nil)

	raw, _, err := foreign.Issue("user-1", "a@b.c", core.RoleViewer, KindAccess)
	require.NoError(t, err)

	// Mismo secreto, pero iss/aud ajenos.
	_, err = c.Verify(raw, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	c := testCodec(nil)

	raw, _, err := c.Issue("user-1", "a@b.c", core.Role("superuser"), KindAccess)
	require.NoError(t, err)

	_, err = c.Verify(raw, KindAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	c := testCodec(nil)

	for _, raw := range []string{"", "no-es-un-jwt", "a.b", "a.b.c.d"} {
		_, err := c.Verify(raw, KindAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", raw)
	}
}

func TestTTLPerKind(t *testing.T) {
	c := testCodec(nil)
	assert.Equal(t, DefaultAccessTTL, c.TTL(KindAccess))
	assert.Equal(t, DefaultRefreshTTL, c.TTL(KindRefresh))
}
