package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	var fired []time.Time
	c.AfterFunc(5*time.Second, func() { fired = append(fired, c.Now()) })

	c.Advance(4 * time.Second)
	if len(fired) != 0 {
		t.Fatalf("timer fired early")
	}
	c.Advance(time.Second)
	if len(fired) != 1 || !fired[0].Equal(start.Add(5*time.Second)) {
		t.Fatalf("expected one firing at +5s, got %v", fired)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}

func TestFakeStopPreventsFiring(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected Stop to report an active timer")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if timer.Stop() {
		t.Fatalf("second Stop must report false")
	}
}

func TestFakeRearmedTimersFireWithinWindow(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	count := 0
	var arm func()
	arm = func() {
		c.AfterFunc(5*time.Second, func() {
			count++
			arm()
		})
	}
	arm()

	c.Advance(16 * time.Second)
	if count != 3 {
		t.Fatalf("expected 3 firings in 16s, got %d", count)
	}
}
