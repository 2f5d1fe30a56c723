package poller

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/clock"
)

func TestRunsOncePerInterval(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	count := 0
	task := Start(clk, 5*time.Second, func(context.Context) { count++ }, zerolog.Nop())
	defer task.Stop()

	clk.Advance(4 * time.Second)
	if count != 0 {
		t.Fatalf("expected no run before the first interval, got %d", count)
	}
	clk.Advance(11 * time.Second)
	if count != 3 {
		t.Fatalf("expected 3 runs after 15s, got %d", count)
	}
	if task.Runs() != 3 {
		t.Fatalf("expected Runs()=3, got %d", task.Runs())
	}
}

func TestStopCancelsPendingTimer(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	count := 0
	task := Start(clk, 5*time.Second, func(context.Context) { count++ }, zerolog.Nop())

	clk.Advance(3 * time.Second)
	task.Stop()
	clk.Advance(time.Minute)

	if count != 0 {
		t.Fatalf("expected no runs after stop, got %d", count)
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clk.Pending())
	}
	task.Stop()
}

func TestStopFromInsideRun(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	count := 0
	var task *Task
	var sawCancel bool
	task = Start(clk, time.Second, func(ctx context.Context) {
		count++
		task.Stop()
		sawCancel = ctx.Err() != nil
	}, zerolog.Nop())

	clk.Advance(10 * time.Second)
	if count != 1 {
		t.Fatalf("expected a single run, got %d", count)
	}
	if !sawCancel {
		t.Fatalf("expected the run context to be cancelled by Stop")
	}
	if !task.Stopped() {
		t.Fatalf("expected task stopped")
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	count := 0
	task := Start(clk, time.Second, func(context.Context) {
		count++
		if count == 1 {
			panic("boom")
		}
	}, zerolog.Nop())
	defer task.Stop()

	clk.Advance(2 * time.Second)
	if count != 2 {
		t.Fatalf("expected loop to survive a panic, got %d runs", count)
	}
}
