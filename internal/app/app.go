// Package app wires the client together: storage, session, routing, the
// request pipeline and the background jobs.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/apiclient"
	"campusconnect/internal/clock"
	"campusconnect/internal/config"
	"campusconnect/internal/jobs"
	"campusconnect/internal/kvstore"
	"campusconnect/internal/navigation"
	"campusconnect/internal/recent"
	"campusconnect/internal/service"
	"campusconnect/internal/session"
	"campusconnect/internal/views"
)

type App struct {
	Config    *config.AppConfig
	Log       zerolog.Logger
	Sessions  *session.Store
	Recent    *recent.Tracker
	Router    *navigation.Router
	API       *apiclient.Client
	Auth      *service.AuthService
	Scheduler *jobs.Scheduler

	clock   clock.Clock
	closeKV func() error
}

// New opens storage and rehydrates any saved session. The scheduler is not
// started; call Start for long-running commands.
func New(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*App, error) {
	kv, closeKV, err := kvstore.Open(ctx, cfg.Storage, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sessions := session.NewStore(kv, log, recent.StorageKey)
	sessions.Bootstrap(ctx)

	tracker := recent.NewTracker(kv, cfg.Recent.Limit, log)
	router := navigation.NewRouter(sessions, navigation.DefaultRoutes(), log, navigation.WithRecent(tracker))
	router.OnNavigate(func(o navigation.Outcome) {
		log.Debug().Str("requested", o.Requested).Str("location", o.Location).Msg("navigated")
	})
	client := apiclient.New(cfg.API, sessions, router, log)

	return &App{
		Config:    cfg,
		Log:       log,
		Sessions:  sessions,
		Recent:    tracker,
		Router:    router,
		API:       client,
		Auth:      service.NewAuthService(client, sessions, log),
		Scheduler: jobs.NewScheduler(cfg.Session.ExpirySweep, sessions, router, log),
		clock:     clock.Real(),
		closeKV:   closeKV,
	}, nil
}

func (a *App) Start() error {
	return a.Scheduler.Start()
}

// Logout ends the session and lands on the login page.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Auth.Logout(ctx); err != nil {
		return err
	}
	a.Router.Navigate(ctx, navigation.PathLogin)
	return nil
}

// OnSignOut calls fn each time the session goes from signed in to signed
// out, whether by logout, expiry or a rejected token. The returned func
// cancels the registration.
func (a *App) OnSignOut(fn func()) func() {
	var mu sync.Mutex
	signedIn := a.Sessions.IsAuthenticated()
	return a.Sessions.Subscribe(func(s session.Snapshot) {
		mu.Lock()
		ended := signedIn && !s.IsAuthenticated()
		signedIn = s.IsAuthenticated()
		mu.Unlock()
		if ended {
			fn()
		}
	})
}

func (a *App) viewOptions(interval time.Duration, onChange func()) views.Options {
	return views.Options{
		Interval:             interval,
		MaxUnconfirmedCycles: a.Config.Polling.MaxUnconfirmedCycles,
		Clock:                a.clock,
		Logger:               a.Log,
		OnChange:             onChange,
	}
}

func (a *App) signedInUser() (int64, error) {
	current := a.Sessions.Current()
	if !current.IsAuthenticated() {
		return 0, service.ErrNotSignedIn
	}
	return current.User.UserID, nil
}

// Notifications returns an unmounted notifications view for the signed-in
// user.
func (a *App) Notifications(onChange func()) (*views.Notifications, error) {
	userID, err := a.signedInUser()
	if err != nil {
		return nil, err
	}
	return views.NewNotifications(a.API, userID, a.viewOptions(a.Config.Polling.NotificationsInterval, onChange)), nil
}

func (a *App) Conversation(partnerID int64, onChange func()) (*views.Conversation, error) {
	userID, err := a.signedInUser()
	if err != nil {
		return nil, err
	}
	if partnerID == userID {
		return nil, fmt.Errorf("%w: cannot message yourself", service.ErrInvalidInput)
	}
	return views.NewConversation(a.API, userID, partnerID, a.viewOptions(a.Config.Polling.ConversationInterval, onChange)), nil
}

func (a *App) Feed(onChange func()) (*views.Feed, error) {
	userID, err := a.signedInUser()
	if err != nil {
		return nil, err
	}
	return views.NewFeed(a.API, userID, a.viewOptions(a.Config.Polling.FeedInterval, onChange)), nil
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.closeKV()
}
