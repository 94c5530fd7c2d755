package testutil

import (
	"sync"
	"time"

	"github.com/okurilov/meetradar/internal/model"
)

// FakeClock is a manually advanced model.Clock for deterministic tests of
// debounce and interval behavior.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

// NewFakeClock creates a FakeClock anchored at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the simulated current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTimer creates a timer that fires when the clock is advanced past its
// deadline.
func (c *FakeClock) NewTimer(d time.Duration) model.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{
		clock:    c,
		ch:       make(chan time.Time, 1),
		deadline: c.now.Add(d),
		active:   true,
	}
	c.timers = append(c.timers, t)
	return t
}

// NewTicker creates a ticker that fires once per elapsed interval when the
// clock is advanced.
func (c *FakeClock) NewTicker(d time.Duration) model.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{
		clock:    c,
		ch:       make(chan time.Time, 1),
		interval: d,
		next:     c.now.Add(d),
		active:   true,
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves the simulated time forward, firing due timers and tickers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if t.active && !t.deadline.After(c.now) {
			t.active = false
			select {
			case t.ch <- c.now:
			default:
			}
		}
	}
	for _, t := range c.tickers {
		for t.active && !t.next.After(c.now) {
			t.next = t.next.Add(t.interval)
			select {
			case t.ch <- c.now:
			default:
			}
		}
	}
}

type fakeTimer struct {
	clock    *FakeClock
	ch       chan time.Time
	deadline time.Time
	active   bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.deadline = t.clock.now.Add(d)
	t.active = true
	// Drop a stale fire that has not been consumed yet.
	select {
	case <-t.ch:
	default:
	}
	return was
}

type fakeTicker struct {
	clock    *FakeClock
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	active   bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.active = false
}
