// Package session holds who is logged in and with what credential.
//
// The Store is two-tiered: memory is authoritative once loaded, and durable
// storage lets the session survive between invocations. The HTTP client and
// the router receive the same *Store at construction.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/storage"
)

// Durable storage keys.
const (
	UserKey  = "USER_KEY"
	TokenKey = "TOKEN_KEY"
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  *log.Logger

	user  User
	token string
}

// NewStore returns an empty store over s. Call Load to hydrate it.
func NewStore(s storage.Storage, logger *log.Logger) *Store {
	return &Store{
		storage: s,
		logger:  log.OrDefault(logger).With("component", "session"),
		user:    User{},
	}
}

// Load replaces the in-memory state with what durable storage holds. A corrupt
// user record is dropped (the token is still loaded) and reported.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, _, err := s.storage.GetItem(TokenKey)
	if err != nil {
		return err
	}
	s.token = token

	user, err := s.readUser()
	s.user = user
	return err
}

// User returns a copy of the current user record. If memory is empty it reads
// through to durable storage once and caches what it finds.
func (s *Store) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user.Empty() {
		user, err := s.readUser()
		if err != nil {
			s.logger.WithError(err).Warn("ignoring unreadable user record")
		}
		s.user = user
	}
	return s.user.clone()
}

// Token returns the current token with the same read-through behaviour as User.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		token, _, err := s.storage.GetItem(TokenKey)
		if err != nil {
			s.logger.WithError(err).Warn("ignoring unreadable token")
		}
		s.token = token
	}
	return s.token
}

// PersistedToken reads the token straight from durable storage, bypassing the
// in-memory tier. The request interceptor uses it.
func (s *Store) PersistedToken() string {
	token, _, err := s.storage.GetItem(TokenKey)
	if err != nil {
		s.logger.WithError(err).Warn("ignoring unreadable token")
		return ""
	}
	return token
}

// Set stores user and token in memory, then writes the user and the token to
// durable storage in that order. A failure on the second write leaves the
// first in place.
func (s *Store) Set(user User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user.clone()
	s.token = token

	data, err := json.Marshal(s.user)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to encode user record", err)
	}
	if err := s.storage.SetItem(UserKey, string(data)); err != nil {
		return err
	}
	return s.storage.SetItem(TokenKey, token)
}

// Clear empties memory and removes both durable keys. Both removals are
// attempted; the first error is returned.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = User{}
	s.token = ""

	errUser := s.storage.RemoveItem(UserKey)
	errToken := s.storage.RemoveItem(TokenKey)
	if errUser != nil {
		return errUser
	}
	return errToken
}

// ExpireToken drops the token after the backend rejected it. The user record
// is kept so the login prompt can offer the same account.
func (s *Store) ExpireToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	return s.storage.RemoveItem(TokenKey)
}

// IsAuthenticated is true when either half of the session is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != "" || !s.User().Empty()
}

// TokenExpiry reads the exp claim without verifying the signature; the client
// never holds the signing key. ok is false for opaque or exp-less tokens.
func (s *Store) TokenExpiry() (time.Time, bool) {
	return ExpiryOf(s.Token())
}

// ExpiryOf reads the exp claim of a JWT without verifying it.
func ExpiryOf(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without a readable expiry are never considered expired.
func (s *Store) Expired(now time.Time) bool {
	exp, ok := s.TokenExpiry()
	return ok && !now.Before(exp)
}

func (s *Store) readUser() (User, error) {
	raw, ok, err := s.storage.GetItem(UserKey)
	if err != nil {
		return User{}, err
	}
	if !ok || raw == "" {
		return User{}, nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, errors.Wrap(errors.ErrCodeStorageCorrupt, "stored user record is not valid JSON", err)
	}
	if user == nil {
		user = User{}
	}
	return user, nil
}
