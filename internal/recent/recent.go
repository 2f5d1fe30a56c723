// Package recent tracks the portal modules a user opened most recently.
package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"campusconnect/internal/kvstore"
	"campusconnect/internal/models"
)

const (
	StorageKey   = "recentlyAccessed"
	DefaultLimit = 4
)

type Tracker struct {
	kv    kvstore.Store
	limit int
	log   zerolog.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewTracker(kv kvstore.Store, limit int, log zerolog.Logger) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Tracker{
		kv:    kv,
		limit: limit,
		log:   log.With().Str("component", "recent").Logger(),
		now:   time.Now,
	}
}

// Record moves path to the front of the list with the current time and
// trims the list to its limit. It returns the stored list.
func (t *Tracker) Record(ctx context.Context, path, name, icon string) ([]models.RecentEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.list(ctx)
	updated := make([]models.RecentEntry, 0, t.limit)
	updated = append(updated, models.RecentEntry{
		Name:      name,
		Path:      path,
		Icon:      icon,
		Timestamp: t.now().UTC(),
	})
	for _, entry := range entries {
		if len(updated) == t.limit {
			break
		}
		if entry.Path == path {
			continue
		}
		updated = append(updated, entry)
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode recent entries: %w", err)
	}
	if err := t.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return nil, fmt.Errorf("persist recent entries: %w", err)
	}
	return updated, nil
}

// List never fails; unreadable data reads as an empty list.
func (t *Tracker) List(ctx context.Context) []models.RecentEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.list(ctx)
}

func (t *Tracker) list(ctx context.Context) []models.RecentEntry {
	raw, err := t.kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			t.log.Warn().Err(err).Msg("read recent entries failed")
		}
		return []models.RecentEntry{}
	}

	var entries []models.RecentEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.log.Warn().Err(err).Msg("recent entries are malformed, ignoring")
		return []models.RecentEntry{}
	}

	out := make([]models.RecentEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Path == "" {
			continue
		}
		out = append(out, entry)
		if len(out) == t.limit {
			break
		}
	}
	return out
}

func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear recent entries: %w", err)
	}
	return nil
}

var ageMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: 1},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: 24 * time.Hour, Format: "%d hours %s", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "1 day %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: 24 * time.Hour},
}

// RelativeAge formats how long ago ts was, relative to now. Units are
// floored. Zero, sub-minute and future deltas read "just now".
func RelativeAge(ts, now time.Time) string {
	if !ts.Before(now) {
		return "just now"
	}
	return humanize.CustomRelTime(ts, now, "ago", "from now", ageMagnitudes)
}
