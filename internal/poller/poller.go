// Package poller runs a function on a fixed interval. The next run is
// scheduled only after the previous one returns, so runs never overlap.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/clock"
)

type Func func(ctx context.Context)

// Task is a handle to a running poll loop. The zero value is not usable;
// call Start.
type Task struct {
	clock    clock.Clock
	interval time.Duration
	run      Func
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
	runs    int
}

// Start arms the first run one interval from now.
func Start(clk clock.Clock, interval time.Duration, run Func, log zerolog.Logger) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		clock:    clk,
		interval: interval,
		run:      run,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	t.arm()
	return t
}

func (t *Task) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.timer = t.clock.AfterFunc(t.interval, t.fire)
}

func (t *Task) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.runs++
	t.mu.Unlock()

	t.safeRun()
	t.arm()
}

func (t *Task) safeRun() {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Msg("poll run panicked")
		}
	}()
	t.run(t.ctx)
}

// Stop cancels the pending timer and the context passed to an in-flight
// run. No run starts after Stop returns. It is safe to call Stop from inside
// the run function and to call it more than once.
func (t *Task) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.cancel()
}

func (t *Task) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Runs reports how many times the function has been started.
func (t *Task) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}
