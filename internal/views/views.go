// Package views holds the live, optimistically updated lists behind the
// notifications badge, a direct-message thread and the post feed.
package views

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/apiclient"
	"campusconnect/internal/clock"
	"campusconnect/internal/livelist"
)

type Options struct {
	Interval             time.Duration
	MaxUnconfirmedCycles int
	Clock                clock.Clock
	Logger               zerolog.Logger
	// OnChange is called after every change to the list; read the new state
	// with Entries.
	OnChange func()
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Real()
	}
	return o.Clock
}

// unauthorized stops polling: the request pipeline has already cleared the
// session and redirected.
func unauthorized(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized)
}

func listOptions[T any](o Options, component string, key func(T) string, fetch func(context.Context) ([]T, error)) livelist.Options[T] {
	opts := livelist.Options[T]{
		Key:                  key,
		Fetch:                fetch,
		Interval:             o.Interval,
		MaxUnconfirmedCycles: o.MaxUnconfirmedCycles,
		Fatal:                unauthorized,
		Clock:                o.clock(),
		Logger:               o.Logger.With().Str("view", component).Logger(),
	}
	if o.OnChange != nil {
		onChange := o.OnChange
		opts.OnChange = func([]livelist.Entry[T]) { onChange() }
	}
	return opts
}

type base[T any] struct {
	list *livelist.Controller[T]
}

func (b *base[T]) Mount(ctx context.Context) error {
	return b.list.Mount(ctx)
}

func (b *base[T]) Refresh(ctx context.Context) error {
	return b.list.Refresh(ctx)
}

func (b *base[T]) Dispose() {
	b.list.Dispose()
}

func (b *base[T]) Entries() []livelist.Entry[T] {
	return b.list.Snapshot()
}

func (b *base[T]) Dismiss(key string) bool {
	return b.list.Dismiss(key)
}

func (b *base[T]) State() livelist.State {
	return b.list.State()
}

func (b *base[T]) find(key string) (T, bool) {
	for _, entry := range b.list.Snapshot() {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	var zero T
	return zero, false
}
