package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"campusconnect/internal/kvstore"
	"campusconnect/internal/models"
)

var student = models.User{UserID: 7, Name: "Ayesha", Email: "a@nust.edu.pk", Role: models.UserRoleStudent}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestLoginIsImmediatelyAuthenticated(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv, zerolog.Nop())
	if store.IsAuthenticated() {
		t.Fatalf("new store must start unauthenticated")
	}

	if err := store.Login(context.Background(), student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Fatalf("expected authenticated after login")
	}
	if store.Token() != "T1" {
		t.Fatalf("expected token T1, got %s", store.Token())
	}
	stored, err := kv.Get(context.Background(), KeyToken)
	if err != nil || stored != "T1" {
		t.Fatalf("expected token persisted, got %q (%v)", stored, err)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	store := NewStore(kvstore.NewMemoryStore(), zerolog.Nop())
	if err := store.Login(context.Background(), student, ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("empty token must not authenticate")
	}
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv, zerolog.Nop(), "recentlyAccessed")
	if err := store.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := kv.Set(ctx, "recentlyAccessed", "[]"); err != nil {
		t.Fatalf("seed recent: %v", err)
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected unauthenticated after logout")
	}
	for _, key := range []string{KeyToken, KeyUser, "recentlyAccessed"} {
		if _, err := kv.Get(ctx, key); !errors.Is(err, kvstore.ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", key, err)
		}
	}
}

func TestBootstrapRehydrates(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	first := NewStore(kv, zerolog.Nop())
	if err := first.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second := NewStore(kv, zerolog.Nop())
	second.Bootstrap(ctx)
	current := second.Current()
	if !current.IsAuthenticated() || current.User.Email != student.Email {
		t.Fatalf("expected rehydrated session, got %+v", current)
	}
}

func TestBootstrapTreatsMalformedStateAsSignedOut(t *testing.T) {
	cases := map[string]map[string]string{
		"corrupt user":  {KeyToken: "T1", KeyUser: "{not-json"},
		"missing user":  {KeyToken: "T1"},
		"missing token": {KeyUser: `{"userId":7}`},
		"empty token":   {KeyToken: "", KeyUser: `{"userId":7}`},
	}
	for name, data := range cases {
		kv := kvstore.NewMemoryStore()
		for key, value := range data {
			if err := kv.Set(context.Background(), key, value); err != nil {
				t.Fatalf("%s: seed: %v", name, err)
			}
		}
		store := NewStore(kv, zerolog.Nop())
		store.Bootstrap(context.Background())
		if store.IsAuthenticated() {
			t.Fatalf("%s: expected unauthenticated", name)
		}
	}
}

func TestBootstrapDropsExpiredToken(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	writer := NewStore(kv, zerolog.Nop())
	expired := signedToken(t, time.Now().Add(-time.Hour))
	if err := writer.Login(ctx, student, expired); err != nil {
		t.Fatalf("login: %v", err)
	}

	store := NewStore(kv, zerolog.Nop())
	store.Bootstrap(ctx)
	if store.IsAuthenticated() {
		t.Fatalf("expected expired session to be dropped")
	}
	if _, err := kv.Get(ctx, KeyToken); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected expired token purged, got %v", err)
	}
}

func TestSnapshotExpiry(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	store := NewStore(kvstore.NewMemoryStore(), zerolog.Nop())
	if err := store.Login(context.Background(), student, signedToken(t, expiresAt)); err != nil {
		t.Fatalf("login: %v", err)
	}
	current := store.Current()
	if !current.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected exp %s, got %s", expiresAt, current.ExpiresAt)
	}
	if current.Expired(expiresAt.Add(-time.Minute)) {
		t.Fatalf("expected session valid before exp")
	}
	if !current.Expired(expiresAt) {
		t.Fatalf("expected session expired at exp")
	}

	opaque := Snapshot{Token: "opaque"}
	if opaque.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("opaque tokens never expire client-side")
	}
}

func TestInvalidateIfCurrentExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kvstore.NewMemoryStore(), zerolog.Nop())
	if err := store.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		cleared int
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.InvalidateIfCurrent(ctx, "T1") {
				mu.Lock()
				cleared++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if cleared != 1 {
		t.Fatalf("expected exactly one clear, got %d", cleared)
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected unauthenticated")
	}
}

func TestInvalidateIgnoresStaleToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kvstore.NewMemoryStore(), zerolog.Nop())
	if err := store.Login(ctx, student, "T2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.InvalidateIfCurrent(ctx, "T1") {
		t.Fatalf("a failure for an old token must not clear the new session")
	}
	if store.InvalidateIfCurrent(ctx, "") {
		t.Fatalf("an unauthenticated request must not clear the session")
	}
	if !store.IsAuthenticated() {
		t.Fatalf("expected session to survive")
	}
}

func TestSubscribersSeeChanges(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kvstore.NewMemoryStore(), zerolog.Nop())

	var seen []bool
	unsubscribe := store.Subscribe(func(s Snapshot) {
		seen = append(seen, s.IsAuthenticated())
	})
	if err := store.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	unsubscribe()
	if err := store.Login(ctx, student, "T2"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

// pausingKV blocks the first Delete until release is closed.
type pausingKV struct {
	kvstore.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *pausingKV) Delete(ctx context.Context, keys ...string) error {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return p.Store.Delete(ctx, keys...)
}

func TestLoginDuringInvalidationPurgeSurvives(t *testing.T) {
	kv := &pausingKV{
		Store:   kvstore.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := NewStore(kv, zerolog.Nop())
	ctx := context.Background()
	if err := store.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	invalidated := make(chan bool)
	go func() { invalidated <- store.InvalidateIfCurrent(ctx, "T1") }()
	<-kv.entered

	loggedIn := make(chan error)
	go func() { loggedIn <- store.Login(ctx, student, "T2") }()

	select {
	case err := <-loggedIn:
		t.Fatalf("login finished while the purge was still running (err=%v)", err)
	case <-time.After(20 * time.Millisecond):
	}
	close(kv.release)

	if !<-invalidated {
		t.Fatalf("expected invalidation of T1")
	}
	if err := <-loggedIn; err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.Token() != "T2" {
		t.Fatalf("expected in-memory token T2, got %q", store.Token())
	}
	stored, err := kv.Get(ctx, KeyToken)
	if err != nil || stored != "T2" {
		t.Fatalf("expected stored token T2, got %q (%v)", stored, err)
	}
}

func TestLogoutWaitsForInFlightInvalidation(t *testing.T) {
	kv := &pausingKV{
		Store:   kvstore.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := NewStore(kv, zerolog.Nop())
	ctx := context.Background()
	if err := store.Login(ctx, student, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	invalidated := make(chan bool)
	go func() { invalidated <- store.InvalidateIfCurrent(ctx, "T1") }()
	<-kv.entered

	loggedOut := make(chan error)
	go func() { loggedOut <- store.Logout(ctx) }()
	select {
	case <-loggedOut:
		t.Fatalf("logout finished while the purge was still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(kv.release)

	<-invalidated
	if err := <-loggedOut; err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := kv.Get(ctx, KeyToken); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected no stored token, got %v", err)
	}
}
