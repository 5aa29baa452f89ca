package csrf

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/campuslibre/portal/internal/cache"
)

// cacheStore implementa Store sobre cache.Client, para despliegues con más
// de una instancia del portal (backend redis). La expiración y el barrido
// quedan delegados al backend.
type cacheStore struct {
	c   cache.Client
	ttl time.Duration
}

// NewCacheStore crea un Store respaldado por el cache compartido.
func NewCacheStore(c cache.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &cacheStore{c: c, ttl: ttl}
}

func key(sessionID string) string { return "csrf:" + sessionID }

func (s *cacheStore) Issue(ctx context.Context, sessionID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.c.Set(ctx, key(sessionID), token, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (s *cacheStore) Verify(ctx context.Context, sessionID, token string) bool {
	stored, err := s.c.Get(ctx, key(sessionID))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

func (s *cacheStore) Peek(ctx context.Context, sessionID string) (string, bool) {
	stored, err := s.c.Get(ctx, key(sessionID))
	if err != nil {
		return "", false
	}
	return stored, true
}
