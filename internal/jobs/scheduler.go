package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"campusconnect/internal/session"
)

type Navigator interface {
	RedirectToLogin()
}

type Scheduler struct {
	cron     *cron.Cron
	sessions *session.Store
	nav      Navigator
	spec     string
	now      func() time.Time
	log      zerolog.Logger
}

// NewScheduler prepares the background jobs. spec is a six-field cron
// expression for the session expiry sweep; empty disables it.
func NewScheduler(spec string, sessions *session.Store, nav Navigator, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&log))),
	)
	return &Scheduler{
		cron:     c,
		sessions: sessions,
		nav:      nav,
		spec:     spec,
		now:      time.Now,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.sweepExpiredSession); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running job to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepExpiredSession() {
	s.SweepExpiredSession(context.Background())
}

// SweepExpiredSession ends a session whose token has passed its exp claim,
// the same way a 401 does. It reports whether it ended one.
func (s *Scheduler) SweepExpiredSession(ctx context.Context) bool {
	current := s.sessions.Current()
	if !current.IsAuthenticated() || !current.Expired(s.now()) {
		return false
	}
	if !s.sessions.InvalidateIfCurrent(ctx, current.Token) {
		return false
	}
	s.log.Info().Int64("user_id", current.User.UserID).Time("expired_at", current.ExpiresAt).Msg("session expired")
	if s.nav != nil {
		s.nav.RedirectToLogin()
	}
	return true
}
