package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"campusconnect/internal/kvstore"
	"campusconnect/internal/models"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrEmptyToken = errors.New("session token required")

// Snapshot is an immutable view of who is logged in.
type Snapshot struct {
	User  models.User
	Token string
	// ExpiresAt is the exp claim of the token, zero for opaque tokens.
	ExpiresAt time.Time
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

func (s Snapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store is the single authoritative copy of the client session. It is written
// only by Login, Logout and InvalidateIfCurrent.
type Store struct {
	kv         kvstore.Store
	log        zerolog.Logger
	scopedKeys []string
	now        func() time.Time

	// writeMu serialises writers across the memory update and persistence,
	// so storage always ends up matching memory.
	writeMu sync.Mutex

	mu          sync.RWMutex
	current     Snapshot
	subscribers map[int]func(Snapshot)
	nextID      int
}

// NewStore creates an unauthenticated store. scopedKeys name additional
// storage keys that belong to the session and are removed with it.
func NewStore(kv kvstore.Store, log zerolog.Logger, scopedKeys ...string) *Store {
	return &Store{
		kv:          kv,
		log:         log.With().Str("component", "session").Logger(),
		scopedKeys:  scopedKeys,
		now:         time.Now,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Bootstrap rehydrates the session from durable storage. Missing, malformed
// or expired data leaves the store unauthenticated; it never fails.
func (s *Store) Bootstrap(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot, ok := s.load(ctx)
	if ok && snapshot.Expired(s.now()) {
		s.log.Info().Int64("user_id", snapshot.User.UserID).Msg("stored session expired")
		s.purge(ctx)
		ok = false
	}
	if !ok {
		snapshot = Snapshot{}
	}

	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
	s.notify(snapshot)
}

func (s *Store) load(ctx context.Context) (Snapshot, bool) {
	token, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.log.Warn().Err(err).Msg("read stored token failed")
		}
		return Snapshot{}, false
	}
	rawUser, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.log.Warn().Err(err).Msg("read stored user failed")
		}
		return Snapshot{}, false
	}
	if token == "" {
		return Snapshot{}, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.Warn().Err(err).Msg("stored user is malformed, starting signed out")
		return Snapshot{}, false
	}

	return Snapshot{
		User:      user,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}, true
}

// Login makes the session authenticated immediately; persistence happens
// afterwards and a storage failure does not undo the in-memory login.
func (s *Store) Login(ctx context.Context, user models.User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := Snapshot{
		User:      user,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
	s.notify(snapshot)

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	s.log.Debug().Int64("user_id", user.UserID).Str("role", string(user.Role)).Msg("session started")
	return nil
}

// Logout clears memory first, then durable storage.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = Snapshot{}
	s.mu.Unlock()
	s.notify(Snapshot{})

	return s.purge(ctx)
}

// InvalidateIfCurrent clears the session only if token is still the active
// one. It reports whether this call performed the clear, so concurrent auth
// failures for the same token yield exactly one true.
func (s *Store) InvalidateIfCurrent(ctx context.Context, token string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if token == "" || s.current.Token != token {
		s.mu.Unlock()
		return false
	}
	userID := s.current.User.UserID
	s.current = Snapshot{}
	s.mu.Unlock()

	if err := s.purge(ctx); err != nil {
		s.log.Warn().Err(err).Msg("purge invalidated session failed")
	}
	s.log.Info().Int64("user_id", userID).Msg("session invalidated")
	s.notify(Snapshot{})
	return true
}

func (s *Store) purge(ctx context.Context) error {
	keys := append([]string{KeyToken, KeyUser}, s.scopedKeys...)
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear stored session: %w", err)
	}
	return nil
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	return s.Current().IsAuthenticated()
}

func (s *Store) Token() string {
	return s.Current().Token
}

// Subscribe registers fn to receive every session change, in order. fn runs
// while the change is being written and must not call Login, Logout or
// InvalidateIfCurrent. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(snapshot Snapshot) {
	s.mu.RLock()
	subscribers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client never holds the signing key.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
