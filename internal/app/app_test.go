package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/config"
	"campusconnect/internal/devportal"
	"campusconnect/internal/livelist"
	"campusconnect/internal/models"
	"campusconnect/internal/navigation"
	"campusconnect/internal/service"
)

func newTestApp(t *testing.T) (*App, *devportal.Server) {
	t.Helper()
	portal := devportal.New(config.DevServerConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, "test", zerolog.Nop())
	server := httptest.NewServer(portal.Handler())
	t.Cleanup(server.Close)

	cfg := &config.AppConfig{
		Environment: "test",
		API:         config.APIConfig{BaseURL: server.URL + "/api", Timeout: 5 * time.Second},
		Storage:     config.StorageConfig{Driver: "memory"},
		Polling: config.PollingConfig{
			NotificationsInterval: time.Hour,
			ConversationInterval:  time.Hour,
			FeedInterval:          time.Hour,
			MaxUnconfirmedCycles:  3,
		},
		Recent: config.RecentConfig{Limit: 4},
	}
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, portal
}

func seed(t *testing.T, portal *devportal.Server, name, email string) models.User {
	t.Helper()
	user, err := portal.SeedUser(name, email, "x", models.UserRoleStudent)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return user
}

func TestViewsRequireSession(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.Notifications(nil); !errors.Is(err, service.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if _, err := a.Feed(nil); !errors.Is(err, service.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestRecentModulesClearedOnLogout(t *testing.T) {
	ctx := context.Background()
	a, portal := newTestApp(t)
	seed(t, portal, "Ali", "a@nust.edu.pk")

	if _, err := a.Auth.Login(ctx, service.LoginInput{Email: "a@nust.edu.pk", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	for _, path := range []string{"/rides", "/events", "/clubs"} {
		a.Router.Navigate(ctx, path)
	}
	entries := a.Recent.List(ctx)
	if len(entries) != 2 || entries[0].Path != "/events" {
		t.Fatalf("expected events then rides, got %+v", entries)
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if a.Router.Location() != navigation.PathLogin {
		t.Fatalf("expected login page after logout, got %s", a.Router.Location())
	}
	if len(a.Recent.List(ctx)) != 0 {
		t.Fatalf("expected recent modules cleared with the session")
	}
}

func TestNotificationsMarkAllReadAgainstPortal(t *testing.T) {
	ctx := context.Background()
	a, portal := newTestApp(t)
	user := seed(t, portal, "Ali", "a@nust.edu.pk")
	portal.Notify(user.UserID, "Ride confirmed", "/rides")
	portal.Notify(user.UserID, "Event tomorrow", "/events")

	if _, err := a.Auth.Login(ctx, service.LoginInput{Email: "a@nust.edu.pk", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	view, err := a.Notifications(nil)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	defer view.Dispose()
	if err := view.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if view.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", view.UnreadCount())
	}

	if err := view.MarkAllRead(ctx); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if view.UnreadCount() != 0 {
		t.Fatalf("expected optimistic zero unread, got %d", view.UnreadCount())
	}
	if err := view.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	for _, e := range view.Entries() {
		if !e.Value.IsRead || e.Status != livelist.StatusConfirmed {
			t.Fatalf("expected confirmed read entries, got %+v", e)
		}
	}
}

func TestConversationSendConfirmedByPortal(t *testing.T) {
	ctx := context.Background()
	a, portal := newTestApp(t)
	seed(t, portal, "Ali", "a@nust.edu.pk")
	sara := seed(t, portal, "Sara", "s@nust.edu.pk")

	if _, err := a.Auth.Login(ctx, service.LoginInput{Email: "a@nust.edu.pk", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	view, err := a.Conversation(sara.UserID, nil)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	defer view.Dispose()
	if err := view.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	if err := view.Send(ctx, "salam"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := view.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	entries := view.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one message, got %+v", entries)
	}
	if entries[0].Status != livelist.StatusConfirmed || entries[0].Value.MessageID == 0 {
		t.Fatalf("expected confirmed stored message, got %+v", entries[0])
	}
}

func TestOnSignOutFiresWhenSessionEnds(t *testing.T) {
	ctx := context.Background()
	a, portal := newTestApp(t)
	seed(t, portal, "Ali", "a@nust.edu.pk")
	login := func() {
		t.Helper()
		if _, err := a.Auth.Login(ctx, service.LoginInput{Email: "a@nust.edu.pk", Password: "x"}); err != nil {
			t.Fatalf("login: %v", err)
		}
	}

	ended := 0
	stop := a.OnSignOut(func() { ended++ })
	login()
	if ended != 0 {
		t.Fatalf("login must not count as sign out")
	}

	if !a.Sessions.InvalidateIfCurrent(ctx, a.Sessions.Token()) {
		t.Fatalf("expected the active token to be invalidated")
	}
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected one sign out for a rejected token, got %d", ended)
	}

	login()
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ended != 2 {
		t.Fatalf("expected a second sign out after logout, got %d", ended)
	}

	stop()
	login()
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ended != 2 {
		t.Fatalf("expected no calls after stop, got %d", ended)
	}
}
