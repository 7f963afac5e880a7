// Package memory is an in-process store.UserStore for tests and local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
)

type identityKey struct {
	provider providers.Provider
	id       string
}

type Store struct {
	mu       sync.RWMutex
	users    map[string]*store.User
	byProv   map[identityKey]string
	byEmail  map[string]string
	tokens   map[identityKey]*store.ProviderToken // keyed by (provider, user id)
	now      func() time.Time
	failures map[string]error
}

var _ store.UserStore = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]*store.User),
		byProv:   make(map[identityKey]string),
		byEmail:  make(map[string]string),
		tokens:   make(map[identityKey]*store.ProviderToken),
		now:      time.Now,
		failures: make(map[string]error),
	}
}

// FailNext makes the next call to op return err. Test hook for failure paths.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	s.failures[op] = err
	s.mu.Unlock()
}

func (s *Store) injected(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// Counts returns the number of users and token rows.
func (s *Store) Counts() (users, tokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.tokens)
}

func emailKey(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func clone(u *store.User) *store.User {
	c := *u
	return &c
}

func (s *Store) FindUser(_ context.Context, p providers.Provider, externalID string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byProv[identityKey{p, externalID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(s.users[id]), nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(s.users[id]), nil
}

func (s *Store) CreateUser(_ context.Context, in store.CreateUserInput) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateUser"); err != nil {
		return nil, err
	}

	key := identityKey{in.Provider, in.ProviderID}
	if _, dup := s.byProv[key]; dup {
		return nil, store.ErrConflict
	}
	if _, dup := s.users[in.ID]; dup {
		return nil, store.ErrConflict
	}
	if in.Email != "" {
		if _, dup := s.byEmail[emailKey(in.Email)]; dup {
			return nil, store.ErrConflict
		}
	}

	now := s.now()
	u := &store.User{
		ID:              in.ID,
		Provider:        in.Provider,
		ProviderID:      in.ProviderID,
		Email:           in.Email,
		Name:            in.Name,
		Picture:         in.Picture,
		EmailVerifiedAt: in.EmailVerifiedAt,
		RawProfile:      in.RawProfile,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.users[u.ID] = u
	s.byProv[key] = u.ID
	if u.Email != "" {
		s.byEmail[emailKey(u.Email)] = u.ID
	}
	return clone(u), nil
}

func (s *Store) UpdateUserProfile(_ context.Context, id string, upd store.ProfileUpdate) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpdateUserProfile"); err != nil {
		return nil, err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Email != "" && emailKey(upd.Email) != emailKey(u.Email) {
		if owner, taken := s.byEmail[emailKey(upd.Email)]; taken && owner != id {
			return nil, store.ErrConflict
		}
		if u.Email != "" {
			delete(s.byEmail, emailKey(u.Email))
		}
		s.byEmail[emailKey(upd.Email)] = id
		u.Email = upd.Email
	}
	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Picture != "" {
		u.Picture = upd.Picture
	}
	if upd.EmailVerifiedAt != nil && u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = upd.EmailVerifiedAt
	}
	if len(upd.RawProfile) > 0 {
		u.RawProfile = upd.RawProfile
	}
	u.UpdatedAt = s.now()
	return clone(u), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	delete(s.byProv, identityKey{u.Provider, u.ProviderID})
	if u.Email != "" {
		delete(s.byEmail, emailKey(u.Email))
	}
	for k := range s.tokens {
		if k.id == id {
			delete(s.tokens, k)
		}
	}
	return nil
}

func (s *Store) UpsertProviderToken(_ context.Context, tok store.ProviderToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpsertProviderToken"); err != nil {
		return err
	}
	if _, ok := s.users[tok.UserID]; !ok {
		return store.ErrNotFound
	}
	tok.UpdatedAt = s.now()
	tok.Scope = append([]string(nil), tok.Scope...)
	s.tokens[identityKey{tok.Provider, tok.UserID}] = &tok
	return nil
}

func (s *Store) FindProviderToken(_ context.Context, userID string, p providers.Provider) (*store.ProviderToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[identityKey{p, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (s *Store) DeleteProviderToken(_ context.Context, userID string, p providers.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey{p, userID}
	if _, ok := s.tokens[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.tokens, key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
