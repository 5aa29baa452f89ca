package security

import (
	"context"

	"github.com/campuslibre/portal/internal/security/csrf"
)

// CSRFService expone el token anti-forgery de la sesión al front.
type CSRFService interface {
	// Token devuelve el token vivo de la sesión, emitiendo uno nuevo
	// si no hay ninguno o el anterior ya venció.
	Token(ctx context.Context, sessionID string) (string, error)
}

type csrfService struct {
	store csrf.Store
}

// NewCSRFService crea el servicio sobre el store dado.
func NewCSRFService(store csrf.Store) CSRFService {
	return &csrfService{store: store}
}

func (s *csrfService) Token(ctx context.Context, sessionID string) (string, error) {
	if tok, ok := s.store.Peek(ctx, sessionID); ok {
		return tok, nil
	}
	return s.store.Issue(ctx, sessionID)
}
