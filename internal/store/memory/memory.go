// Package memory implementa core.Repository sobre un map guardado por mutex.
// Pensado para desarrollo local y tests; no persiste entre reinicios.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campuslibre/portal/internal/store/core"
	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]core.User // id → user
}

func New() *Store {
	return &Store{users: make(map[string]core.User)}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return core.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]core.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	s.mu.RLock()
	all := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role core.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, id)
	return nil
}
