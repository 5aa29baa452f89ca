// Package csrf implementa el almacén de tokens anti-forgery del portal.
//
// Un token por sesión: emitir de nuevo pisa el anterior. Los tokens viven
// una hora (configurable) y el estado es de proceso — un reinicio invalida
// todos los tokens emitidos, lo cual es aceptable dada la vida corta.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL es la vida útil de un token CSRF.
const DefaultTTL = time.Hour

// Store define emisión y verificación de tokens CSRF por sesión.
type Store interface {
	// Issue genera un token nuevo para la sesión, pisando el anterior.
	Issue(ctx context.Context, sessionID string) (string, error)

	// Verify retorna true solo si existe un registro vivo para la sesión
	// y el token coincide exactamente.
	Verify(ctx context.Context, sessionID, token string) bool

	// Peek retorna el token vivo sin regenerarlo.
	Peek(ctx context.Context, sessionID string) (string, bool)
}

var ErrTokenGeneration = fmt.Errorf("csrf: failed to generate token")

// newToken genera 32 bytes aleatorios (256 bits) en hex.
func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", ErrTokenGeneration
	}
	return hex.EncodeToString(b[:]), nil
}

type record struct {
	token     string
	expiresAt time.Time
}

// memoryStore guarda los registros en un map con mutex. La emisión barre
// oportunísticamente todos los registros expirados; la verificación borra
// en forma lazy el registro vencido que toca.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]record
	ttl     time.Duration
	now     func() time.Time
}

// Option configura el store en memoria.
type Option func(*memoryStore)

// WithTTL cambia la vida útil de los tokens.
func WithTTL(ttl time.Duration) Option {
	return func(s *memoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *memoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore crea un Store de proceso. Cada test debería crear el suyo.
func NewMemoryStore(opts ...Option) Store {
	s := &memoryStore{
		records: make(map[string]record),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memoryStore) Issue(ctx context.Context, sessionID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	// Barrido oportunista de registros vencidos de TODAS las sesiones.
	for sid, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, sid)
		}
	}

	s.records[sessionID] = record{token: token, expiresAt: now.Add(s.ttl)}
	return token, nil
}

func (s *memoryStore) Verify(ctx context.Context, sessionID, token string) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return false
	}
	if !now.Before(rec.expiresAt) {
		delete(s.records, sessionID)
		return false
	}
	return subtle.ConstantTimeCompare([]byte(rec.token), []byte(token)) == 1
}

func (s *memoryStore) Peek(ctx context.Context, sessionID string) (string, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok || !now.Before(rec.expiresAt) {
		return "", false
	}
	return rec.token, true
}
